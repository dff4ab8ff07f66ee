package dxl2html

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/alnah/go-dxl2html/internal/dxltime"
)

// DefaultBodyItem is the item name treated as the rich-text body.
const DefaultBodyItem = "Body"

// Parser converts one DXL export into a NormalizedDocument. The zero
// value is usable; Log defaults to a no-op logger and BodyItem to
// DefaultBodyItem. A Parser holds no per-document state and is safe for
// concurrent use on distinct documents.
type Parser struct {
	// Log receives structural-anomaly reports. Anomalies are repaired
	// with documented defaults and never fail the document.
	Log *zap.Logger

	// BodyItem is the rich-text item name to parse as the body.
	BodyItem string
}

// Parse reads one DXL document and returns its normalized form with
// every attachment ContentPath left empty. Only XML that is not
// well-formed fails (ErrParse); all other anomalies are recovered
// locally.
func (p *Parser) Parse(data []byte) (*NormalizedDocument, error) {
	doc, _, err := p.parse(data)
	return doc, err
}

// parse is the full pipeline behind Parse. It also returns the
// attachment registry, whose captured payload bodies the Binder
// consumes in registration order.
func (p *Parser) parse(data []byte) (*NormalizedDocument, *attachmentRegistry, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	docEl := documentElement(tree)
	if docEl == nil {
		return nil, nil, ErrEmptyDocument
	}

	log := p.logger()
	bodyItem := p.BodyItem
	if bodyItem == "" {
		bodyItem = DefaultBodyItem
	}

	doc := &NormalizedDocument{
		Form:   docEl.SelectAttrValue("form", ""),
		Fields: map[string]FieldValue{},
	}

	p.parseNoteInfo(docEl, doc)

	reg := newAttachmentRegistry()
	p.registerFilePayloads(docEl, reg)

	pardefs := collectParDefs(docEl)

	for _, item := range docEl.FindElements(".//item") {
		name := item.SelectAttrValue("name", "")
		switch {
		case name == "":
			log.Warn("item without name attribute skipped")
		case name == "$REF":
			if doc.ParentUNID == "" {
				doc.ParentUNID = strings.TrimSpace(item.Text())
			}
		case strings.HasPrefix(name, "$") || name == "Form":
			// System items; $FILE payloads were registered above.
		case name == bodyItem:
			doc.Body = p.parseRichTextItem(item, pardefs, reg)
		default:
			if fv, ok := p.parseFieldItem(item); ok {
				doc.Fields[name] = fv
			}
		}
	}

	doc.Attachments = reg.refs
	doc.Title = deriveTitle(doc)
	doc.Categories = deriveCategories(doc)
	return doc, reg, nil
}

// logger returns the configured logger or a no-op one.
func (p *Parser) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

// documentElement locates the <document> element: the root itself, or
// the first descendant when the export wraps documents in a database
// envelope.
func documentElement(tree *etree.Document) *etree.Element {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Tag == "document" {
		return root
	}
	return root.FindElement(".//document")
}

func (p *Parser) parseNoteInfo(docEl *etree.Element, doc *NormalizedDocument) {
	ni := docEl.FindElement(".//noteinfo")
	if ni == nil {
		doc.UNID = docEl.SelectAttrValue("unid", "")
		p.logger().Warn("noteinfo missing, falling back to document unid",
			zap.String("unid", doc.UNID))
		return
	}
	doc.UNID = ni.SelectAttrValue("unid", "")
	doc.ParentUNID = ni.SelectAttrValue("parent", "")

	if dt := ni.FindElement("created/datetime"); dt != nil {
		t, err := dxltime.Parse(dt.Text())
		if err != nil {
			p.logger().Warn("unparseable created datetime",
				zap.String("unid", doc.UNID), zap.String("raw", dt.Text()))
		} else {
			doc.Created = DateOf(t)
		}
	}
}

// deriveTitle applies the designated-field rule: the Subject item,
// falling back to a unid-qualified placeholder so two untitled
// documents never share an output folder.
func deriveTitle(doc *NormalizedDocument) string {
	if fv, ok := doc.Fields["Subject"]; ok {
		switch fv.Kind {
		case FieldText:
			if s := strings.TrimSpace(fv.Text); s != "" {
				return s
			}
		case FieldTextList:
			if s := strings.TrimSpace(strings.Join(fv.Texts, " ")); s != "" {
				return s
			}
		}
	}
	if doc.UNID != "" {
		return "NoTitle_" + doc.UNID
	}
	return ""
}

// deriveCategories reads the Categories item and normalizes it to at
// most MaxCategoryDepth levels, splitting delimited strings on the
// equivalent "/", ">" and "\" tokens.
func deriveCategories(doc *NormalizedDocument) []string {
	fv, ok := doc.Fields["Categories"]
	if !ok {
		return nil
	}
	var cats []string
	switch fv.Kind {
	case FieldText:
		cats = SplitCategories(fv.Text)
	case FieldTextList:
		for _, entry := range fv.Texts {
			cats = append(cats, SplitCategories(entry)...)
		}
		cats = CollapseCategories(cats)
	}
	return cats
}

// parseFieldItem converts a non-rich-text item to a FieldValue. List
// shapes are checked before scalars; unrecognized bodies are salvaged
// as plain text.
func (p *Parser) parseFieldItem(item *etree.Element) (FieldValue, bool) {
	if els := item.FindElements("textlist/text"); len(els) > 0 {
		texts := make([]string, 0, len(els))
		for _, el := range els {
			if s := strings.TrimSpace(el.Text()); s != "" {
				texts = append(texts, s)
			}
		}
		return FieldValue{Kind: FieldTextList, Texts: texts}, len(texts) > 0
	}
	if els := item.FindElements("numberlist/number"); len(els) > 0 {
		nums := make([]float64, 0, len(els))
		for _, el := range els {
			if n, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64); err == nil {
				nums = append(nums, n)
			}
		}
		return FieldValue{Kind: FieldNumberList, Numbers: nums}, len(nums) > 0
	}
	if els := item.FindElements("datetimelist/datetime"); len(els) > 0 {
		fv := FieldValue{Kind: FieldDateTimeList}
		for _, el := range els {
			if t, err := dxltime.Parse(el.Text()); err == nil {
				fv.Times = append(fv.Times, t)
			}
		}
		return fv, len(fv.Times) > 0
	}
	if el := item.FindElement("text"); el != nil {
		return FieldValue{Kind: FieldText, Text: strings.TrimSpace(el.Text())}, true
	}
	if el := item.FindElement("number"); el != nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64)
		if err != nil {
			p.logger().Warn("unparseable number item",
				zap.String("item", item.SelectAttrValue("name", "")))
			return FieldValue{}, false
		}
		return FieldValue{Kind: FieldNumber, Number: n}, true
	}
	if el := item.FindElement("datetime"); el != nil {
		t, err := dxltime.Parse(el.Text())
		if err != nil {
			// Keep the raw text rather than dropping the field.
			return FieldValue{Kind: FieldText, Text: strings.TrimSpace(el.Text())}, true
		}
		return FieldValue{Kind: FieldDateTime, Time: &t}, true
	}

	if s := strings.TrimSpace(elementText(item)); s != "" {
		return FieldValue{Kind: FieldText, Text: s}, true
	}
	return FieldValue{}, false
}

// parseRichTextItem parses the body item. A rich-text item without a
// <richtext> child degrades to one plain paragraph.
func (p *Parser) parseRichTextItem(item *etree.Element, pardefs map[string]parDef, reg *attachmentRegistry) RichTextTree {
	rt := item.FindElement("richtext")
	if rt == nil {
		if s := strings.TrimSpace(elementText(item)); s != "" {
			return RichTextTree{{
				Kind: BlockParagraph,
				Runs: []Run{{Kind: RunText, Text: s}},
			}}
		}
		return nil
	}
	b := newRichTextBuilder(p.logger(), pardefs, reg)
	b.walkChildren(rt)
	return b.finish()
}

// ---------------------------------------------------------------------------
// Paragraph definitions
// ---------------------------------------------------------------------------

// parDef is the resolved form of a <pardef>, referenced by id from
// <par def="..."> elements.
type parDef struct {
	align        string
	leftMarginIn float64
	list         string // list type, "" when the paragraph is not a list item
}

func collectParDefs(docEl *etree.Element) map[string]parDef {
	defs := map[string]parDef{}
	for _, pd := range docEl.FindElements(".//pardef") {
		id := pd.SelectAttrValue("id", "")
		if id == "" {
			continue
		}
		var def parDef
		switch pd.SelectAttrValue("align", "") {
		case "full":
			def.align = "justify"
		case "center":
			def.align = "center"
		case "right":
			def.align = "right"
		}
		def.leftMarginIn = lengthInInches(pd.SelectAttrValue("leftmargin", ""))
		def.list = pd.SelectAttrValue("list", "")
		defs[id] = def
	}
	return defs
}

// orderedList reports whether a DXL list type renders as <ol>.
func orderedList(listType string) bool {
	switch listType {
	case "number", "alphaupper", "alphalower", "romanupper", "romanlower":
		return true
	}
	return false
}

// lengthInInches converts "1.5in" or "108pt" to inches; 0 on anything
// else.
func lengthInInches(v string) float64 {
	switch {
	case strings.HasSuffix(v, "in"):
		f, _ := strconv.ParseFloat(strings.TrimSuffix(v, "in"), 64)
		return f
	case strings.HasSuffix(v, "pt"):
		f, _ := strconv.ParseFloat(strings.TrimSuffix(v, "pt"), 64)
		return f / 72.0
	}
	return 0
}

// ---------------------------------------------------------------------------
// Attachment registry
// ---------------------------------------------------------------------------

// pictureFormats maps DXL image payload tags to file extensions and
// MIME hints.
var pictureFormats = map[string][2]string{
	"gif":         {"gif", "image/gif"},
	"jpeg":        {"jpg", "image/jpeg"},
	"png":         {"png", "image/png"},
	"bmp":         {"bmp", "image/bmp"},
	"notesbitmap": {"bin", "application/octet-stream"},
}

// attachmentRegistry accumulates AttachmentRef entries in document
// order, assigning deterministic collision-free names: name, name (1),
// name (2), ... It also captures the raw base64 bodies in the same
// order, so the Binder reads payloads from the exact traversal that
// named them instead of re-deriving the order from the XML.
type attachmentRegistry struct {
	refs     []*AttachmentRef
	byName   map[string]*AttachmentRef
	bySource map[string]*AttachmentRef // source name -> first ref
	inline   int

	fileBodies   map[string][]string // $FILE source name -> bodies in occurrence order
	inlineBodies []string            // inline picture bodies by position
}

func newAttachmentRegistry() *attachmentRegistry {
	return &attachmentRegistry{
		byName:     map[string]*AttachmentRef{},
		bySource:   map[string]*AttachmentRef{},
		fileBodies: map[string][]string{},
	}
}

// add appends a new ref for a source filename, suffixing the model name
// when the plain name is taken.
func (r *attachmentRegistry) add(sourceName, mimeHint string, size int64) *AttachmentRef {
	name := sourceName
	for n := 1; ; n++ {
		if _, taken := r.byName[name]; !taken {
			break
		}
		name = suffixedName(sourceName, n)
	}
	ref := &AttachmentRef{Name: name, MIMEHint: mimeHint, SizeBytes: size}
	r.refs = append(r.refs, ref)
	r.byName[name] = ref
	if _, seen := r.bySource[sourceName]; !seen {
		r.bySource[sourceName] = ref
	}
	return ref
}

// bind returns the ref a rich-text reference with the given source name
// points at, registering a stub entry when no payload was declared.
func (r *attachmentRegistry) bind(sourceName string) *AttachmentRef {
	if ref, ok := r.bySource[sourceName]; ok {
		return ref
	}
	return r.add(sourceName, "", 0)
}

// addInline registers an inline image payload, named by position.
func (r *attachmentRegistry) addInline(ext, mimeHint, body string) *AttachmentRef {
	name := fmt.Sprintf("inline_image_%d.%s", r.inline, ext)
	r.inline++
	r.inlineBodies = append(r.inlineBodies, body)
	return r.add(name, mimeHint, 0)
}

// suffixedName inserts " (n)" before the extension.
func suffixedName(name string, n int) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// AttachmentSourceName strips the deterministic " (n)" suffix so the
// Binder can find the payload a collision-renamed ref came from.
func AttachmentSourceName(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	open := strings.LastIndex(stem, " (")
	if open < 0 || !strings.HasSuffix(stem, ")") {
		return name
	}
	num := stem[open+2 : len(stem)-1]
	if num == "" {
		return name
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return name
		}
	}
	return stem[:open] + ext
}

// registerFilePayloads records every $FILE payload declared in the
// export, in document order. Bodies are captured alongside the refs;
// an empty entry keeps the occurrence order intact for duplicates.
func (p *Parser) registerFilePayloads(docEl *etree.Element, reg *attachmentRegistry) {
	for _, item := range docEl.FindElements(".//item[@name='$FILE']") {
		for _, fileEl := range item.FindElements(".//file") {
			name := fileEl.SelectAttrValue("name", "")
			if name == "" {
				p.logger().Warn("$FILE entry without name attribute skipped")
				continue
			}
			size, _ := strconv.ParseInt(fileEl.SelectAttrValue("size", "0"), 10, 64)
			reg.add(name, "", size)
			var body string
			if dataEl := fileEl.FindElement(".//filedata"); dataEl != nil {
				body = dataEl.Text()
			}
			reg.fileBodies[name] = append(reg.fileBodies[name], body)
		}
	}
}

// ---------------------------------------------------------------------------
// Rich text walker
// ---------------------------------------------------------------------------

// richTextBuilder assembles blocks during one recursive descent over a
// rich-text subtree. The style stack is the only implicit state the
// walk carries, scoped to the current subtree and restored on exit.
type richTextBuilder struct {
	log     *zap.Logger
	pardefs map[string]parDef
	reg     *attachmentRegistry

	blocks RichTextTree
	styles styleStack

	runs    []Run
	parOpen bool
	par     parDef

	listItems   []RichTextTree
	listOrdered bool
	listActive  bool
}

func newRichTextBuilder(log *zap.Logger, pardefs map[string]parDef, reg *attachmentRegistry) *richTextBuilder {
	return &richTextBuilder{log: log, pardefs: pardefs, reg: reg}
}

// sub creates a builder for nested content (table cells, section parts)
// sharing the registry and pardefs but with a fresh block state.
func (b *richTextBuilder) sub() *richTextBuilder {
	return newRichTextBuilder(b.log, b.pardefs, b.reg)
}

func (b *richTextBuilder) finish() RichTextTree {
	b.flushParagraph()
	b.flushList()
	return b.blocks
}

// walkChildren processes the text and element children of el in
// document order, so text before, between, and after inline elements
// lands in the right place.
func (b *richTextBuilder) walkChildren(el *etree.Element) {
	for i := 0; i < len(el.Child); i++ {
		switch node := el.Child[i].(type) {
		case *etree.CharData:
			b.emitText(node.Data)
		case *etree.Element:
			if b.walkFontTail(node, el.Child, &i) {
				continue
			}
			b.walk(node)
		}
	}
}

// walkFontTail handles the self-closed font pattern
// <font color="..."/>styled text, where the text the font applies to
// follows the element as its tail instead of nesting inside it. The
// tail is emitted under the font's style and consumed so the outer
// loop does not emit it again unstyled. Reports whether the element
// was handled.
func (b *richTextBuilder) walkFontTail(el *etree.Element, siblings []etree.Token, i *int) bool {
	if el.Tag != "font" || elementHasContent(el) || *i+1 >= len(siblings) {
		return false
	}
	tail, ok := siblings[*i+1].(*etree.CharData)
	if !ok || strings.TrimSpace(tail.Data) == "" {
		return false
	}
	style := styleFromElement(el)
	if !style.IsZero() {
		b.styles.push(style)
		defer b.styles.pop()
	}
	b.emitText(tail.Data)
	*i++
	return true
}

// elementHasContent reports whether el has element children or
// non-blank text of its own.
func elementHasContent(el *etree.Element) bool {
	for _, child := range el.Child {
		switch node := child.(type) {
		case *etree.CharData:
			if strings.TrimSpace(node.Data) != "" {
				return true
			}
		case *etree.Element:
			return true
		}
	}
	return false
}

func (b *richTextBuilder) walk(el *etree.Element) {
	switch el.Tag {
	case "par":
		b.flushParagraph()
		b.par = b.pardefs[el.SelectAttrValue("def", "")]
		b.parOpen = true
		b.walkChildren(el)
		b.flushParagraph()

	case "break":
		// Explicit line break: split the paragraph keeping attributes.
		def := b.par
		b.flushParagraph()
		b.par = def
		b.parOpen = true

	case "table":
		b.flushParagraph()
		b.flushList()
		b.blocks = append(b.blocks, b.parseTable(el))

	case "horizrule":
		b.flushParagraph()
		b.flushList()
		b.blocks = append(b.blocks, Block{Kind: BlockRule})

	case "section":
		b.flushParagraph()
		b.flushList()
		b.blocks = append(b.blocks, b.parseSection(el))

	case "run", "font", "b", "i", "u", "strike", "sup", "sub":
		style := styleFromElement(el)
		if !style.IsZero() {
			b.styles.push(style)
			defer b.styles.pop()
		}
		b.walkChildren(el)

	case "urllink":
		href := strings.TrimSpace(el.SelectAttrValue("href", ""))
		label := strings.TrimSpace(elementText(el))
		if label == "" {
			label = href
		}
		b.appendRun(Run{Kind: RunURLLink, Href: href, Text: label, Style: b.styles.current()})

	case "doclink":
		target := el.SelectAttrValue("document", "")
		if target == "" {
			target = el.SelectAttrValue("unid", "")
		}
		dbHint := el.SelectAttrValue("database", "")
		if dbHint == "" {
			dbHint = el.SelectAttrValue("db", "")
		}
		label := strings.TrimSpace(elementText(el))
		if label == "" {
			label = el.SelectAttrValue("description", "")
		}
		b.appendRun(Run{
			Kind:         RunDocLink,
			TargetUNID:   target,
			TargetDBHint: dbHint,
			Text:         label,
			Style:        b.styles.current(),
		})

	case "attachmentref":
		name := el.SelectAttrValue("name", "")
		if name == "" {
			b.log.Warn("attachmentref without name attribute skipped")
			return
		}
		ref := b.reg.bind(name)
		display := el.SelectAttrValue("displayname", "")
		if display == "" {
			display = ref.Name
		}
		// The inner <picture> is the attachment icon, not content.
		b.appendRun(Run{Kind: RunAttachment, Ref: ref.Name, Text: display, Style: b.styles.current()})

	case "picture":
		b.emitPicture(el)

	case "pardef", "parstyle", "fonttable", "colortable", "object",
		"file", "filedata", "gif", "jpeg", "png", "bmp", "notesbitmap",
		"caption", "region", "sectiontitle":
		// Known non-content elements inside rich text.

	default:
		// Unknown element: salvage its text content as plain runs.
		b.log.Debug("unknown rich-text element, salvaging text", zap.String("tag", el.Tag))
		b.walkChildren(el)
	}
}

func (b *richTextBuilder) emitPicture(el *etree.Element) {
	ext, mime, body := "gif", "image/gif", ""
	for tag, fm := range pictureFormats {
		if dataEl := el.FindElement(tag); dataEl != nil {
			ext, mime = fm[0], fm[1]
			body = dataEl.Text()
			break
		}
	}
	ref := b.reg.addInline(ext, mime, body)
	b.appendRun(Run{
		Kind:   RunPicture,
		Ref:    ref.Name,
		Width:  pixels(el.SelectAttrValue("width", "")),
		Height: pixels(el.SelectAttrValue("height", "")),
	})
}

func pixels(v string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(v, "px"))
	return n
}

// emitText normalizes whitespace and appends a text run in the current
// style, merging into the previous run when styles match.
func (b *richTextBuilder) emitText(s string) {
	s = collapseWhitespace(s)
	if strings.TrimSpace(s) == "" {
		return
	}
	if len(b.runs) == 0 {
		s = strings.TrimLeft(s, " ")
	}
	b.appendRun(Run{Kind: RunText, Text: s, Style: b.styles.current()})
}

func (b *richTextBuilder) appendRun(r Run) {
	b.ensureParagraph()
	if r.Kind == RunText && len(b.runs) > 0 {
		last := &b.runs[len(b.runs)-1]
		if last.Kind == RunText && last.Style == r.Style {
			last.Text += r.Text
			return
		}
	}
	b.runs = append(b.runs, r)
}

// ensureParagraph opens a default paragraph when content arrives before
// any <par> marker.
func (b *richTextBuilder) ensureParagraph() {
	if !b.parOpen {
		b.par = parDef{}
		b.parOpen = true
	}
}

// flushParagraph closes the current paragraph. List-item paragraphs
// accumulate into the pending list; ordinary paragraphs interrupt it.
func (b *richTextBuilder) flushParagraph() {
	if !b.parOpen {
		return
	}
	runs := b.runs
	def := b.par
	b.runs = nil
	b.parOpen = false

	if len(runs) == 0 {
		return
	}

	block := Block{
		Kind:  BlockParagraph,
		Runs:  runs,
		Align: def.align,
		Style: ParStyle{LeftMarginIn: def.leftMarginIn},
	}

	if def.list != "" {
		ordered := orderedList(def.list)
		if b.listActive && b.listOrdered != ordered {
			b.flushList()
		}
		b.listActive = true
		b.listOrdered = ordered
		b.listItems = append(b.listItems, RichTextTree{block})
		return
	}

	b.flushList()
	b.blocks = append(b.blocks, block)
}

func (b *richTextBuilder) flushList() {
	if !b.listActive {
		return
	}
	b.blocks = append(b.blocks, Block{
		Kind:    BlockList,
		Items:   b.listItems,
		Ordered: b.listOrdered,
	})
	b.listItems = nil
	b.listActive = false
}

func (b *richTextBuilder) parseSection(el *etree.Element) Block {
	block := Block{Kind: BlockSection}

	if titleEl := el.FindElement("sectiontitle"); titleEl != nil {
		tb := b.sub()
		tb.walkChildren(titleEl)
		block.Title = tb.finish()
	} else {
		b.log.Warn("section without sectiontitle")
	}

	body := b.sub()
	for _, child := range el.Child {
		node, ok := child.(*etree.Element)
		if !ok {
			continue
		}
		if node.Tag == "sectiontitle" || node.Tag == "pardef" {
			continue
		}
		body.walk(node)
	}
	block.Body = body.finish()
	return block
}

func (b *richTextBuilder) parseTable(el *etree.Element) Block {
	var rows [][]TableCell
	for _, rowEl := range el.FindElements("tablerow") {
		var row []TableCell
		for _, cellEl := range rowEl.FindElements("tablecell") {
			cb := b.sub()
			cb.walkChildren(cellEl)
			cell := TableCell{
				Content: cb.finish(),
				RowSpan: spanAttr(cellEl, "rowspan"),
				ColSpan: spanAttr(cellEl, "colspan"),
				Style: CellStyle{
					Background: cellEl.SelectAttrValue("bgcolor", ""),
					Width:      cellEl.SelectAttrValue("width", ""),
				},
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	clampTableSpans(rows, b.log)
	return Block{Kind: BlockTable, Rows: rows}
}

// spanAttr reads a merge attribute, defaulting to 1 and clamping
// nonsense to 1 rather than failing.
func spanAttr(el *etree.Element, name string) int {
	v := el.SelectAttrValue(name, "")
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// clampTableSpans enforces the row-occupancy invariant best-effort: a
// rowspan reaching past the last row is shortened, and a colspan
// pushing a row past the widest occupancy of the table is shortened.
// Malformed grids are repaired, never rejected.
func clampTableSpans(rows [][]TableCell, log *zap.Logger) {
	if len(rows) == 0 {
		return
	}

	// Widest effective occupancy, counting spans carried from above.
	width := 0
	carry := make([]int, 0)
	occupancy := func(mutate bool) {
		carry = carry[:0]
		for ri := range rows {
			used := 0
			for i := range carry {
				if carry[i] > 0 {
					used++
					carry[i]--
				}
			}
			for ci := range rows[ri] {
				cell := &rows[ri][ci]
				if mutate {
					if over := cell.RowSpan - (len(rows) - ri); over > 0 {
						log.Warn("rowspan exceeds table, clamped",
							zap.Int("row", ri), zap.Int("cell", ci))
						cell.RowSpan -= over
					}
					if width > 0 && used+cell.ColSpan > width {
						log.Warn("colspan exceeds table width, clamped",
							zap.Int("row", ri), zap.Int("cell", ci))
						cell.ColSpan = max(1, width-used)
					}
				}
				used += cell.ColSpan
				for n := 0; n < cell.ColSpan; n++ {
					carry = append(carry, cell.RowSpan-1)
				}
			}
			if used > width {
				width = used
			}
		}
	}
	occupancy(false) // measure
	occupancy(true)  // repair
}

// ---------------------------------------------------------------------------
// Style extraction
// ---------------------------------------------------------------------------

// styleFromElement reads explicit formatting off a style element. Only
// attributes actually present are set, so merging preserves the
// inherit-by-default rule.
func styleFromElement(el *etree.Element) CharStyle {
	var s CharStyle
	switch el.Tag {
	case "b":
		s.Bold = true
	case "i":
		s.Italic = true
	case "u":
		s.Underline = true
	case "strike":
		s.Strikethrough = true
	case "sup":
		s.Script = ScriptSuper
	case "sub":
		s.Script = ScriptSub
	case "run":
		s.Background = firstAttr(el, "bgcolor", "background", "highlight")
	case "font":
		s = styleFromFont(el)
	}
	return s
}

func styleFromFont(el *etree.Element) CharStyle {
	var s CharStyle
	s.Color = el.SelectAttrValue("color", "")
	s.Background = firstAttr(el, "bgcolor", "background", "highlight")
	s.FontFamily = el.SelectAttrValue("name", "")
	if v := el.SelectAttrValue("size", ""); v != "" {
		if pt, err := strconv.ParseFloat(strings.TrimSuffix(v, "pt"), 64); err == nil {
			s.FontSizePt = pt
		}
	}

	flags := strings.Fields(strings.ToLower(strings.ReplaceAll(el.SelectAttrValue("style", ""), ",", " ")))
	for _, f := range flags {
		switch f {
		case "bold":
			s.Bold = true
		case "italic":
			s.Italic = true
		case "underline":
			s.Underline = true
		case "strikethrough", "strikeout":
			s.Strikethrough = true
		case "superscript":
			s.Script = ScriptSuper
		case "subscript":
			s.Script = ScriptSub
		}
	}
	switch firstAttr(el, "baseline", "position") {
	case "super", "superscript":
		s.Script = ScriptSuper
	case "sub", "subscript":
		s.Script = ScriptSub
	}
	return s
}

func firstAttr(el *etree.Element, names ...string) string {
	for _, n := range names {
		if v := el.SelectAttrValue(n, ""); v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Small helpers
// ---------------------------------------------------------------------------

// elementText concatenates all descendant text of el.
func elementText(el *etree.Element) string {
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.Child {
			switch node := child.(type) {
			case *etree.CharData:
				b.WriteString(node.Data)
			case *etree.Element:
				walk(node)
			}
		}
	}
	walk(el)
	return b.String()
}

// collapseWhitespace turns any whitespace run into a single space,
// keeping one leading and trailing separator so text split around
// inline elements keeps its word boundaries.
func collapseWhitespace(s string) string {
	core := strings.Join(strings.Fields(s), " ")
	if core == "" {
		return ""
	}
	if isSpace(s[0]) {
		core = " " + core
	}
	if isSpace(s[len(s)-1]) {
		core += " "
	}
	return core
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
