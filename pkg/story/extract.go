package story

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "snapify/pkg/errors"
)

// ExtractMediaURLs reads a story page and returns the media URLs embedded in
// its __NEXT_DATA__ script. A page without the script, or with a payload that
// is not valid JSON, yields a parsing error.
func ExtractMediaURLs(r io.Reader) ([]string, error) {
	raw, err := extractNextData(r)
	if err != nil {
		return nil, err
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid __NEXT_DATA__ payload")
	}

	return data.mediaURLs(), nil
}

func extractNextData(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse story page")
	}

	sel := doc.Find(nextDataSelector).First()
	if sel.Length() == 0 {
		return "", errs.New(errs.ErrorTypeParsing, 0, "__NEXT_DATA__ script not found")
	}

	raw := strings.TrimSpace(sel.Text())
	if raw == "" {
		return "", errs.New(errs.ErrorTypeParsing, 0, "empty __NEXT_DATA__ script")
	}
	return raw, nil
}
