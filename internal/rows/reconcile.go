package rows

// Reconcile matches freshly projected rows against the previous projection by
// key and substitutes the previous *Row wherever nothing changed, so a
// downstream renderer can skip unchanged rows by pointer identity. When every
// row survives and the lengths match, the previous slice itself is returned.
// Reconciliation never changes semantic content, only identity.
func Reconcile(prev, next []*Row) []*Row {
	if len(prev) == 0 {
		return next
	}

	byKey := make(map[string]*Row, len(prev))
	for _, r := range prev {
		byKey[r.Key] = r
	}

	out := make([]*Row, len(next))
	reused := 0
	for i, r := range next {
		if old, ok := byKey[r.Key]; ok && rowEqual(old, r) {
			out[i] = old
			reused++
			continue
		}
		out[i] = r
	}

	if reused == len(next) && len(next) == len(prev) {
		return prev
	}
	return out
}

// rowEqual compares every rendered field by value, array fields element-wise.
func rowEqual(a, b *Row) bool {
	if a.Key != b.Key ||
		a.Kind != b.Kind ||
		a.Depth != b.Depth ||
		a.Label != b.Label ||
		a.SubLabel != b.SubLabel ||
		a.FolderPath != b.FolderPath ||
		a.FileID != b.FileID ||
		a.HeadingLevel != b.HeadingLevel ||
		a.HeadingOrder != b.HeadingOrder ||
		a.CopyText != b.CopyText ||
		a.SourcePath != b.SourcePath ||
		a.RichHTML != b.RichHTML ||
		a.HasChildren != b.HasChildren {
		return false
	}
	if len(a.ParagraphXML) != len(b.ParagraphXML) {
		return false
	}
	for i := range a.ParagraphXML {
		if a.ParagraphXML[i] != b.ParagraphXML[i] {
			return false
		}
	}
	if (a.Hit == nil) != (b.Hit == nil) {
		return false
	}
	if a.Hit != nil && *a.Hit != *b.Hit {
		return false
	}
	return true
}
