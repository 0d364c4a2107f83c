// Package csr names the control/status registers fpgrars implements.
// It is a leaf package shared by internal/asm, which resolves a
// csrw/csrr instruction's symbolic CSR name into a tag at assembly
// time, and internal/vm, which stores and dispatches on that same tag
// at execution time, avoiding a dependency cycle between the two
// (internal/vm already imports internal/asm for the decoded IR).
package csr

// CSR is the dense tag a symbolic CSR name resolves to. Any name not
// in the table traps IllegalInstruction.
type CSR int

const (
	Time CSR = iota
	Timeh
	Uscratch
	Utvec
	Uepc
	Ucause
	Utval
	Ustatus
	Misa
)

var names = map[string]CSR{
	"time": Time, "timeh": Timeh,
	"uscratch": Uscratch, "utvec": Utvec,
	"uepc": Uepc, "ucause": Ucause, "utval": Utval, "ustatus": Ustatus,
	"misa": Misa,
}

// Lookup resolves a CSR name to its tag.
func Lookup(name string) (CSR, bool) {
	c, ok := names[name]
	return c, ok
}
