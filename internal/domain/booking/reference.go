package booking

import "fmt"

// referencePrefixes maps kinds to the human-readable reference prefix.
var referencePrefixes = map[Kind]string{
	KindRegistration: "REG",
	KindConsultation: "CON",
}

// FormatReference builds a reference number like REG-2026-0001. The sequence
// is scoped per kind and year and assigned by the repository.
func FormatReference(kind Kind, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", referencePrefixes[kind], year, seq)
}
