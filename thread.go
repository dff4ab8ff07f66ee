package dxl2html

// BuildThreads links documents into response hierarchies by ParentUNID
// and returns the roots in input order. A document whose parent is not
// in the batch, or whose parent chain loops back to itself, becomes a
// root. Each document's Responses slice is rebuilt, also in input
// order, so the result is deterministic for a given input ordering.
func BuildThreads(docs []*NormalizedDocument) []*NormalizedDocument {
	byUNID := make(map[string]*NormalizedDocument, len(docs))
	for _, doc := range docs {
		doc.Responses = nil
		if doc.UNID != "" {
			byUNID[doc.UNID] = doc
		}
	}

	var roots []*NormalizedDocument
	for _, doc := range docs {
		parent := byUNID[doc.ParentUNID]
		if parent == nil || parent == doc || inAncestry(byUNID, parent, doc) {
			roots = append(roots, doc)
			continue
		}
		parent.Responses = append(parent.Responses, doc)
	}
	return roots
}

// inAncestry reports whether target appears in the parent chain above
// start, which would make attaching a cycle.
func inAncestry(byUNID map[string]*NormalizedDocument, start, target *NormalizedDocument) bool {
	seen := map[*NormalizedDocument]bool{}
	for cur := start; cur != nil && !seen[cur]; cur = byUNID[cur.ParentUNID] {
		if cur == target {
			return true
		}
		seen[cur] = true
	}
	return false
}
