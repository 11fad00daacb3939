package processor

// Translate maps a local category label to its display label. A nil label,
// or one with no (or an empty) entry in table, is returned unchanged.
func Translate(label *string, table map[string]string) *string {
	if label == nil {
		return nil
	}
	if display, ok := table[*label]; ok && display != "" {
		return &display
	}
	return label
}

// BuildTranslation turns cleaned translation records into a lookup table.
func BuildTranslation(records []CleanRecord) map[string]string {
	table := make(map[string]string, len(records))
	for _, r := range records {
		local := r.String("product_category_name")
		english := r.String("product_category_name_english")
		if english == "" {
			continue
		}
		if _, dup := table[local]; dup {
			continue
		}
		table[local] = english
	}
	return table
}
