package excel

// RawData is a sheet or CSV file as read, before kind inference
type RawData struct {
	Headers []string   // Column headers, trimmed
	Rows    [][]string // Data rows, padded to len(Headers)
}

// Width returns the number of columns
func (d *RawData) Width() int {
	return len(d.Headers)
}

// Cells returns column j of every row
func (d *RawData) Cells(j int) []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[j]
	}
	return out
}
