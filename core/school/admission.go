package school

import (
	"fmt"
	"strings"
)

// AdmissionPrefix is the admission number prefix shared by all learners admitted in `year`.
func AdmissionPrefix(prefix string, year int) string {
	return fmt.Sprintf("%s/%d/", strings.ToUpper(strings.TrimSpace(prefix)), year)
}

// NextAdmissionNo returns the admission number following `existing` admissions in `year`, eg. LAA/2025/0042.
func NextAdmissionNo(prefix string, year, existing int) string {
	return fmt.Sprintf("%s%04d", AdmissionPrefix(prefix, year), existing+1)
}
