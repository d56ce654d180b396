package domain

import "oss.nandlabs.io/golly/ioutils"

// HashContentForLogging returns a short checksum of job content suitable for
// log lines, per §7's "content is hashed in logs" policy — raw post content
// never reaches structured logs.
func HashContentForLogging(content string) string {
	sum, err := ioutils.NewChkSumCalc(ioutils.SHA256).Calculate(content)
	if err != nil {
		return "unhashable"
	}
	return sum
}
