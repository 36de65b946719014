package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/formkv/pkg/forms"
)

// Mode selects which fields are written.
type Mode string

const (
	// ModeCustomerDetails writes the fixed field list of the Customer Details
	// form, in that order, with empty values for fields that were not found.
	ModeCustomerDetails Mode = "1"
	// ModeAll writes every resolved field in resolution order.
	ModeAll Mode = "2"
)

// CustomerDetailsKeys are the key texts of the Customer Details form as
// rendered, including the trailing space.
var CustomerDetailsKeys = []string{
	"EMAIL ",
	"FIRST NAME ",
	"LAST NAME ",
	"TELEPHONE ",
	"ADDRESS ",
	"TOWN ",
	"COUNTY ",
	"POST CODE ",
	"DATE ",
	"EVENT ",
	"SITTING ID ",
	"PHOTOGRAPHER ",
}

// ParseMode accepts the interactive choices "1"/"2" as well as the names
// "details"/"all".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "details", "customer-details":
		return ModeCustomerDetails, nil
	case "2", "all", "other":
		return ModeAll, nil
	default:
		return "", fmt.Errorf("invalid mode %q", s)
	}
}

// Rows returns the key/value rows written for kv in the given mode.
func Rows(kv *forms.KeyValues, mode Mode) [][]string {
	if mode == ModeCustomerDetails {
		rows := make([][]string, 0, len(CustomerDetailsKeys))
		for _, k := range CustomerDetailsKeys {
			v, _ := kv.Get(k)
			rows = append(rows, []string{k, v})
		}
		return rows
	}

	pairs := kv.Pairs()
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p.Key, p.Value})
	}
	return rows
}

// EncodeCSV writes kv as two-column CSV to w.
func EncodeCSV(w io.Writer, kv *forms.KeyValues, mode Mode) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(kv, mode)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSVPath returns the output path for an input file: the same directory and
// base name with a .csv extension.
func CSVPath(inputPath string) string {
	dir, name := filepath.Split(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, stem+".csv")
}

// WriteCSV writes kv next to inputPath and returns the path of the CSV file.
func WriteCSV(inputPath string, kv *forms.KeyValues, mode Mode) (string, error) {
	path := CSVPath(inputPath)

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("error writing csv for %s: %w", filepath.Base(inputPath), err)
	}

	if err := EncodeCSV(f, kv, mode); err != nil {
		f.Close()
		return path, fmt.Errorf("error writing csv for %s: %w", filepath.Base(inputPath), err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("error writing csv for %s: %w", filepath.Base(inputPath), err)
	}

	return path, nil
}
