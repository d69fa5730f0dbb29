// Package pdfcheck performs structural validation of generated PDF files.
//
// It checks the header magic, loads the cross-reference table (classic
// tables and PDF 1.5+ xref streams), resolves the document catalog, and
// walks the page tree. It deliberately does not decode page content;
// the goal is to reject truncated or malformed output cheaply.
package pdfcheck

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrNotPDF is returned for data that does not start with the PDF magic.
var ErrNotPDF = errors.New("pdfcheck: not a PDF file")

// maxDecompressedSize bounds xref/object stream inflation (64 MB).
const maxDecompressedSize = 64 * 1024 * 1024

// Validate checks that data is a structurally sound PDF with at least
// one page.
func Validate(data []byte) error {
	n, err := PageCount(data)
	if err != nil {
		return err
	}
	if n < 1 {
		return errors.New("pdfcheck: document has no pages")
	}
	return nil
}

// ValidateFile is [Validate] for a file on disk.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pdfcheck: %w", err)
	}
	return Validate(data)
}

// PageCount parses the document structure and returns the number of
// leaf pages in the page tree.
func PageCount(data []byte) (int, error) {
	doc, err := load(data)
	if err != nil {
		return 0, err
	}
	return doc.pageCount()
}

type objType int

const (
	objNull objType = iota
	objBool
	objInt
	objFloat
	objString
	objName
	objArray
	objDict
	objStream
	objRef
)

type object struct {
	typ    objType
	num    float64
	name   string
	array  []*object
	dict   dict
	stream []byte // raw stream data
	ref    int    // referenced object number
}

type dict map[string]*object

func (d dict) getInt(key string) (int, bool) {
	if o, ok := d[key]; ok && (o.typ == objInt || o.typ == objFloat) {
		return int(o.num), true
	}
	return 0, false
}

func (d dict) getName(key string) (string, bool) {
	if o, ok := d[key]; ok && o.typ == objName {
		return o.name, true
	}
	return "", false
}

type xrefEntry struct {
	offset int64
	inUse  bool
	// For objects stored inside object streams (PDF 1.5+).
	compressed  bool
	containerID int
}

type document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer dict
	cache   map[int]*object
}

func load(data []byte) (*document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	doc := &document{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]*object),
	}
	offset, err := doc.findStartXRef()
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	if err := doc.loadXRefAt(offset, seen); err != nil {
		return nil, fmt.Errorf("pdfcheck: loading xref: %w", err)
	}
	return doc, nil
}

// findStartXRef scans the file tail for "startxref" and reads the offset.
func (doc *document) findStartXRef() (int64, error) {
	searchFrom := len(doc.data) - 1024
	if searchFrom < 0 {
		searchFrom = 0
	}
	idx := bytes.LastIndex(doc.data[searchFrom:], []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("pdfcheck: startxref not found")
	}
	lx := newLexer(doc.data, searchFrom+idx+len("startxref"))
	lx.skipSpace()
	tok := lx.token()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pdfcheck: bad startxref value %q", tok)
	}
	return offset, nil
}

// loadXRefAt loads the xref section at offset, following /Prev chains.
// seen guards against offset cycles in corrupt files.
func (doc *document) loadXRefAt(offset int64, seen map[int64]bool) error {
	if offset < 0 || int(offset) >= len(doc.data) {
		return fmt.Errorf("xref offset %d out of bounds", offset)
	}
	if seen[offset] {
		return nil
	}
	seen[offset] = true

	lx := newLexer(doc.data, int(offset))
	lx.skipSpace()
	if lx.match("xref") {
		return doc.loadXRefTable(lx, seen)
	}
	return doc.loadXRefStream(lx, seen)
}

// loadXRefTable parses classic xref subsections plus the trailer dict.
func (doc *document) loadXRefTable(lx *lexer, seen map[int64]bool) error {
	for {
		lx.skipSpace()
		if lx.done() || lx.match("trailer") {
			break
		}
		first, err1 := strconv.Atoi(lx.token())
		lx.skipSpace()
		count, err2 := strconv.Atoi(lx.token())
		if err1 != nil || err2 != nil {
			break
		}
		lx.skipSpace()
		// Entries are fixed 20-byte records: "nnnnnnnnnn ggggg n\r\n".
		for i := 0; i < count; i++ {
			if lx.pos+20 > len(doc.data) {
				break
			}
			rec := doc.data[lx.pos : lx.pos+20]
			lx.pos += 20
			off, _ := strconv.ParseInt(string(bytes.TrimSpace(rec[:10])), 10, 64)
			id := first + i
			if _, ok := doc.xref[id]; !ok {
				doc.xref[id] = xrefEntry{offset: off, inUse: rec[17] == 'n'}
			}
		}
	}

	lx.skipSpace()
	trailerObj := lx.parseObject()
	if trailerObj.typ != objDict {
		return errors.New("trailer is not a dictionary")
	}
	if doc.trailer == nil {
		doc.trailer = trailerObj.dict
	}
	if prev, ok := trailerObj.dict.getInt("Prev"); ok && prev > 0 {
		return doc.loadXRefAt(int64(prev), seen)
	}
	return nil
}

// loadXRefStream parses a PDF 1.5+ cross-reference stream object.
func (doc *document) loadXRefStream(lx *lexer, seen map[int64]bool) error {
	lx.token() // object number
	lx.skipSpace()
	lx.token() // generation
	lx.skipSpace()
	if !lx.match("obj") {
		return errors.New("xref offset points at neither a table nor an object")
	}

	obj := lx.parseObject()
	if obj.typ != objStream {
		return errors.New("xref object is not a stream")
	}
	if doc.trailer == nil {
		doc.trailer = obj.dict
	}

	data, err := decodeStream(obj.dict, obj.stream)
	if err != nil {
		return fmt.Errorf("decoding xref stream: %w", err)
	}

	widths, ok := obj.dict["W"]
	if !ok || widths.typ != objArray || len(widths.array) < 3 {
		return errors.New("xref stream missing /W")
	}
	w1 := int(widths.array[0].num)
	w2 := int(widths.array[1].num)
	w3 := int(widths.array[2].num)
	entrySize := w1 + w2 + w3
	if entrySize == 0 {
		return errors.New("xref stream has zero entry size")
	}

	size, _ := obj.dict.getInt("Size")
	var subsections [][2]int
	if idx, ok := obj.dict["Index"]; ok && idx.typ == objArray {
		for i := 0; i+1 < len(idx.array); i += 2 {
			subsections = append(subsections,
				[2]int{int(idx.array[i].num), int(idx.array[i+1].num)})
		}
	} else {
		subsections = [][2]int{{0, size}}
	}

	pos := 0
	for _, sub := range subsections {
		for i := 0; i < sub[1]; i++ {
			if pos+entrySize > len(data) {
				break
			}
			id := sub[0] + i
			typ := bigEndian(data[pos:], w1)
			if w1 == 0 {
				typ = 1 // type defaults to 1 when the first field is absent
			}
			f2 := bigEndian(data[pos+w1:], w2)
			pos += entrySize

			if _, ok := doc.xref[id]; ok {
				continue
			}
			switch typ {
			case 1:
				doc.xref[id] = xrefEntry{offset: int64(f2), inUse: true}
			case 2:
				doc.xref[id] = xrefEntry{compressed: true, containerID: f2, inUse: true}
			}
		}
	}

	if prev, ok := obj.dict.getInt("Prev"); ok && prev > 0 {
		return doc.loadXRefAt(int64(prev), seen)
	}
	return nil
}

func bigEndian(data []byte, n int) int {
	v := 0
	for i := 0; i < n && i < len(data); i++ {
		v = v<<8 | int(data[i])
	}
	return v
}

// resolve follows indirect references until a direct object is reached.
func (doc *document) resolve(obj *object) *object {
	for obj != nil && obj.typ == objRef {
		obj = doc.object(obj.ref)
	}
	if obj == nil {
		return &object{typ: objNull}
	}
	return obj
}

// object loads the indirect object with the given number.
func (doc *document) object(id int) *object {
	if obj, ok := doc.cache[id]; ok {
		return obj
	}
	entry, ok := doc.xref[id]
	if !ok || !entry.inUse {
		return &object{typ: objNull}
	}

	var obj *object
	if entry.compressed {
		obj = doc.objectFromStream(id, entry.containerID)
	} else {
		obj = doc.objectAt(entry.offset)
	}
	doc.cache[id] = obj
	return obj
}

// objectAt parses "N G obj ... endobj" at a byte offset.
func (doc *document) objectAt(offset int64) *object {
	if offset < 0 || int(offset) >= len(doc.data) {
		return &object{typ: objNull}
	}
	lx := newLexer(doc.data, int(offset))
	lx.token()
	lx.skipSpace()
	lx.token()
	lx.skipSpace()
	if !lx.match("obj") {
		return &object{typ: objNull}
	}
	return lx.parseObject()
}

// objectFromStream extracts an object stored inside an object stream.
func (doc *document) objectFromStream(id, containerID int) *object {
	container := doc.object(containerID)
	if container.typ != objStream {
		return &object{typ: objNull}
	}
	data, err := decodeStream(container.dict, container.stream)
	if err != nil {
		return &object{typ: objNull}
	}
	n, _ := container.dict.getInt("N")
	first, _ := container.dict.getInt("First")

	// The stream opens with n (id, offset) pairs.
	lx := newLexer(data, 0)
	for i := 0; i < n; i++ {
		lx.skipSpace()
		pairID, err1 := strconv.Atoi(lx.token())
		lx.skipSpace()
		off, err2 := strconv.Atoi(lx.token())
		if err1 != nil || err2 != nil {
			return &object{typ: objNull}
		}
		if pairID == id {
			if first+off > len(data) {
				return &object{typ: objNull}
			}
			inner := newLexer(data, first+off)
			return inner.parseObject()
		}
	}
	return &object{typ: objNull}
}

// pageCount walks the page tree under /Root /Pages and counts leaves.
func (doc *document) pageCount() (int, error) {
	rootRef, ok := doc.trailer["Root"]
	if !ok {
		return 0, errors.New("pdfcheck: no /Root in trailer")
	}
	root := doc.resolve(rootRef)
	if root.typ != objDict && root.typ != objStream {
		return 0, errors.New("pdfcheck: catalog is not a dictionary")
	}
	pagesRef, ok := root.dict["Pages"]
	if !ok {
		return 0, errors.New("pdfcheck: no /Pages in catalog")
	}
	pages := doc.resolve(pagesRef)
	if pages.typ != objDict && pages.typ != objStream {
		return 0, errors.New("pdfcheck: page tree root is not a dictionary")
	}
	count := 0
	doc.countPages(pages.dict, &count, 0)
	return count, nil
}

const maxTreeDepth = 64

func (doc *document) countPages(node dict, count *int, depth int) {
	if node == nil || depth > maxTreeDepth {
		return
	}
	if typ, _ := node.getName("Type"); typ == "Page" {
		*count++
		return
	}
	kidsObj, ok := node["Kids"]
	if !ok {
		return
	}
	kids := doc.resolve(kidsObj)
	if kids.typ != objArray {
		return
	}
	for _, kidRef := range kids.array {
		kid := doc.resolve(kidRef)
		if kid.typ == objDict || kid.typ == objStream {
			doc.countPages(kid.dict, count, depth+1)
		}
	}
}

// decodeStream inflates a FlateDecode stream and undoes any PNG/TIFF
// predictor. Streams with no filter pass through; other filters are
// rejected (Chrome emits only flate).
func decodeStream(d dict, data []byte) ([]byte, error) {
	filter, ok := d.getName("Filter")
	if !ok {
		return data, nil
	}
	if filter != "FlateDecode" {
		return nil, fmt.Errorf("unsupported stream filter %q", filter)
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("zlib read: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, errors.New("decompressed stream exceeds size limit")
	}

	parms, ok := d["DecodeParms"]
	if !ok || parms.typ != objDict {
		return out, nil
	}
	predictor, _ := parms.dict.getInt("Predictor")
	if predictor <= 1 {
		return out, nil
	}
	columns, _ := parms.dict.getInt("Columns")
	if columns == 0 {
		columns = 1
	}
	return unpredictPNG(out, columns)
}

// unpredictPNG undoes PNG row filters (predictors 10-15) assuming one
// byte per component, which is what xref streams use.
func unpredictPNG(data []byte, rowBytes int) ([]byte, error) {
	stride := rowBytes + 1 // leading filter-type byte per row
	if stride <= 1 || len(data) == 0 {
		return data, nil
	}
	numRows := len(data) / stride
	out := make([]byte, numRows*rowBytes)
	prev := make([]byte, rowBytes)

	for row := 0; row < numRows; row++ {
		src := data[row*stride : (row+1)*stride]
		filterType := src[0]
		src = src[1:]
		dst := out[row*rowBytes : (row+1)*rowBytes]

		switch filterType {
		case 0: // None
			copy(dst, src)
		case 1: // Sub
			for i := range dst {
				a := byte(0)
				if i > 0 {
					a = dst[i-1]
				}
				dst[i] = src[i] + a
			}
		case 2: // Up
			for i := range dst {
				dst[i] = src[i] + prev[i]
			}
		case 3: // Average
			for i := range dst {
				a := byte(0)
				if i > 0 {
					a = dst[i-1]
				}
				dst[i] = src[i] + byte((int(a)+int(prev[i]))/2)
			}
		case 4: // Paeth
			for i := range dst {
				a, c := byte(0), byte(0)
				if i > 0 {
					a = dst[i-1]
					c = prev[i-1]
				}
				dst[i] = src[i] + paeth(a, prev[i], c)
			}
		default:
			return nil, fmt.Errorf("unknown PNG filter type %d", filterType)
		}
		copy(prev, dst)
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
