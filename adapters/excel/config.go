package excel

// ReaderConfig holds configuration for the CSV/XLSX data source
type ReaderConfig struct {
	Sheet         string   `json:"sheet" yaml:"sheet"`                   // XLSX sheet; the first sheet when empty
	MissingTokens []string `json:"missing_tokens" yaml:"missing_tokens"` // cells read as missing
	Categorical   []string `json:"categorical" yaml:"categorical"`       // columns kept categorical even when numeric
	Comma         rune     `json:"-" yaml:"-"`                           // CSV field separator
}

// DefaultReaderConfig returns sensible defaults for file ingestion
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		MissingTokens: []string{"", "NA", "NaN", "nan", "N/A", "null", "NULL"},
		Comma:         ',',
	}
}

func (c ReaderConfig) isMissing(cell string) bool {
	for _, tok := range c.MissingTokens {
		if cell == tok {
			return true
		}
	}
	return false
}

func (c ReaderConfig) forcedCategorical(name string) bool {
	for _, n := range c.Categorical {
		if n == name {
			return true
		}
	}
	return false
}
