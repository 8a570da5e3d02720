package format

// Envelope is the compact multi-record wire shape: when records span more
// than one file, the distinct paths are factored into _f and each record
// carries an fi index into it instead of repeating its path; when every
// record shares one file, _f collapses to a single inline f at the
// envelope level and per-record File/FileIndex are left unset.
type Envelope struct {
	Items     []Record `json:"items"`
	Files     []string `json:"_f,omitempty"`
	File      string   `json:"f,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}

// BuildEnvelope factors shared file paths out of records per the Compact
// Formatter contract (spec §4.7).
func BuildEnvelope(records []Record) Envelope {
	distinct := make([]string, 0, 4)
	seen := make(map[string]int, 4)
	for _, r := range records {
		if r.File == "" {
			continue
		}
		if _, ok := seen[r.File]; !ok {
			seen[r.File] = len(distinct)
			distinct = append(distinct, r.File)
		}
	}

	env := Envelope{Items: make([]Record, len(records))}
	copy(env.Items, records)

	switch len(distinct) {
	case 0:
		// No file-bearing records (e.g. an overview payload); nothing to factor.
	case 1:
		env.File = distinct[0]
		for i := range env.Items {
			env.Items[i].File = ""
		}
	default:
		env.Files = distinct
		for i := range env.Items {
			if env.Items[i].File == "" {
				continue
			}
			idx := seen[env.Items[i].File]
			env.Items[i].FileIndex = &idx
			env.Items[i].File = ""
		}
	}
	return env
}
