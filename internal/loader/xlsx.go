package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

type xlsxFormat struct{}

func (xlsxFormat) Extensions() []string { return []string{".xlsx"} }

// Records reads the first sheet of a workbook. The first non-empty row is
// the header.
func (xlsxFormat) Records(data []byte, opt Options) ([]string, [][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, nil, err
	}
	sheets, err := parseWorkbook(workbookXML)
	if err != nil {
		return nil, nil, fmt.Errorf("workbook.xml: %w", err)
	}
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}
	target := path.Join("xl", "worksheets", "sheet1.xml")
	if relsXML, err := readZipFile(zr, "xl/_rels/workbook.xml.rels"); err == nil {
		rels, err := parseRelationships(relsXML)
		if err != nil {
			return nil, nil, fmt.Errorf("workbook.xml.rels: %w", err)
		}
		if rel, ok := rels[sheets[0].RID]; ok {
			target = normalizeRelPath(rel)
		}
	}
	var shared []string
	if sharedXML, err := readZipFile(zr, "xl/sharedStrings.xml"); err == nil {
		if shared, err = parseSharedStrings(sharedXML); err != nil {
			return nil, nil, fmt.Errorf("sharedStrings.xml: %w", err)
		}
	}
	sheetXML, err := readZipFile(zr, target)
	if err != nil {
		return nil, nil, err
	}

	rr := newSheetRowReader(sheetXML, shared)
	var header []string
	var records [][]string
	for {
		row, err := rr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, &ParseError{Line: rr.rowNum, Err: fmt.Errorf("sheet %q: %w", sheets[0].Name, err)}
		}
		if blankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		records = append(records, row)
		if opt.MaxRows > 0 && len(records) > opt.MaxRows {
			return nil, nil, fmt.Errorf("more than %d rows", opt.MaxRows)
		}
	}
	if header == nil {
		return nil, nil, fmt.Errorf("sheet %q is empty: no header row", sheets[0].Name)
	}
	header, records = padRecords(header, records)
	return header, records, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook lists sheets in workbook order.
func parseWorkbook(data []byte) ([]wbSheet, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		out = append(out, s)
	}
}

// parseRelationships maps relationship ids to targets.
func parseRelationships(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	out := map[string]string{}
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing %s", name)
}

// parseSharedStrings concatenates the text runs of every <si> item.
func parseSharedStrings(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT, inPhonetic bool
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			case "rPh":
				inPhonetic = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "rPh":
				inPhonetic = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT && !inPhonetic {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows out of a worksheet.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	rowNum int
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next row or io.EOF after the last one.
func (r *sheetRowReader) Next() ([]string, error) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) && inRow {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = nil
				r.rowNum++
				for _, a := range se.Attr {
					if a.Name.Local == "r" {
						if n := atoiSafe(a.Value); n > 0 {
							r.rowNum = n
						}
					}
				}
			case inRow && se.Name.Local == "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := len(row)
				if ref != "" {
					col = colIndexFromRef(ref)
				}
				if col < 0 || col >= maxColumns {
					return nil, fmt.Errorf("invalid cell reference %q", ref)
				}
				val, err := r.readCellValue(typ)
				if err != nil {
					return nil, err
				}
				if len(row) <= col {
					tmp := make([]string, col+1)
					copy(tmp, row)
					row = tmp
				}
				row[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, nil
			}
		}
	}
}

// readCellValue consumes tokens up to </c> and resolves the cell text by type.
func (r *sheetRowReader) readCellValue(typ string) (string, error) {
	var val strings.Builder
	depth := 0
	capture := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				val.Write(se)
			}
		case xml.EndElement:
			if depth == 0 && se.Name.Local == "c" {
				return resolveCell(typ, val.String(), r.shared)
			}
			depth--
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = false
			}
		}
	}
}

func resolveCell(typ, raw string, shared []string) (string, error) {
	switch typ {
	case "s":
		idx := atoiSafe(strings.TrimSpace(raw))
		if idx < 0 || idx >= len(shared) {
			return "", fmt.Errorf("shared string index %q out of range", raw)
		}
		return shared[idx], nil
	case "b":
		if strings.TrimSpace(raw) == "1" {
			return "TRUE", nil
		}
		return "FALSE", nil
	case "e":
		return "", nil
	default:
		return raw, nil
	}
}

// maxColumns is the XLSX column limit (A..XFD).
const maxColumns = 16384

// colIndexFromRef converts a cell reference like "C12" to a 0-based column
// index. It returns -1 when the reference has no column letters or names a
// column past XFD.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
		if idx > maxColumns {
			return -1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets to zip entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
