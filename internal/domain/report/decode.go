// Package report decodes score reports posted by contest logging software.
//
// A report arrives as percent-encoded XML rooted at <dynamicresults>. The
// payload is percent-decoded, parsed into a Node tree and then read field by
// field; nothing here touches storage.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/livescore/internal/domain/model"
)

// RootElement is the document element every report must use.
const RootElement = "dynamicresults"

// multTotalBand marks the mult entries that are summed.
const multTotalBand = "total"

// Decode turns a raw request body into a Report.
func Decode(raw []byte) (model.Report, error) {
	unescaped, err := url.PathUnescape(string(raw))
	if err != nil {
		return model.Report{}, malformed("payload", err)
	}
	doc, err := Parse([]byte(unescaped))
	if err != nil {
		return model.Report{}, err
	}
	root, err := doc.Child("", RootElement)
	if err != nil {
		return model.Report{}, err
	}
	return fromTree(root)
}

func fromTree(root *Node) (model.Report, error) {
	var (
		r   model.Report
		err error
	)
	if r.Contest, err = requiredText(root, "contest"); err != nil {
		return model.Report{}, err
	}
	if r.Callsign, err = requiredText(root, "call"); err != nil {
		return model.Report{}, err
	}
	if r.Operators, err = operators(root); err != nil {
		return model.Report{}, err
	}
	if r.Score, err = requiredInt(root, "score"); err != nil {
		return model.Report{}, err
	}
	if r.Timestamp, err = timestamp(root); err != nil {
		return model.Report{}, err
	}

	breakdown, err := root.Child(RootElement, "breakdown")
	if err != nil {
		return model.Report{}, err
	}
	if r.QSOs, err = lastEntry(breakdown, "qso"); err != nil {
		return model.Report{}, err
	}
	if r.Points, err = lastEntry(breakdown, "point"); err != nil {
		return model.Report{}, err
	}
	if r.Mults, err = multTotal(breakdown); err != nil {
		return model.Report{}, err
	}
	return r, nil
}

func requiredText(root *Node, key string) (string, error) {
	path := RootElement + "." + key
	n, err := root.Child(RootElement, key)
	if err != nil {
		return "", err
	}
	text, err := n.Text(path)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", missing(path)
	}
	return text, nil
}

func requiredInt(root *Node, key string) (int, error) {
	text, err := requiredText(root, key)
	if err != nil {
		return 0, err
	}
	return count(RootElement+"."+key, text)
}

// operators is optional: an absent or empty <ops> means no operators listed.
func operators(root *Node) ([]string, error) {
	n, ok := root.Lookup("ops")
	if !ok {
		return []string{}, nil
	}
	text, err := n.Text(RootElement + ".ops")
	if err != nil {
		return nil, err
	}
	return model.SplitOperators(text), nil
}

func timestamp(root *Node) (time.Time, error) {
	text, err := requiredText(root, "timestamp")
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(model.TimestampLayout, text)
	if err != nil {
		return time.Time{}, malformed(RootElement+".timestamp", err)
	}
	return ts, nil
}

// lastEntry reads the final breakdown entry, which clients send as the
// running total across all bands and modes.
func lastEntry(breakdown *Node, key string) (int, error) {
	path := RootElement + ".breakdown." + key
	n, err := breakdown.Child(RootElement+".breakdown", key)
	if err != nil {
		return 0, err
	}
	entries := n.Entries()
	last := entries[len(entries)-1]
	text, err := last.Text(path)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, missing(path + "." + textKey)
	}
	return count(path, text)
}

// multTotal sums every mult entry tagged band="total". No such entries, or
// no mult element at all, is a total of zero.
func multTotal(breakdown *Node) (int, error) {
	n, ok := breakdown.Lookup("mult")
	if !ok {
		return 0, nil
	}
	path := RootElement + ".breakdown.mult"
	sum := 0
	for i, e := range n.Entries() {
		if band, ok := e.Attr("band"); !ok || band != multTotalBand {
			continue
		}
		text, err := e.Text(path)
		if err != nil {
			return 0, err
		}
		v, err := count(fmt.Sprintf("%s[%d]", path, i), text)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

var errNegative = errors.New("must not be negative")

func count(path, text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, malformed(path, err)
	}
	if v < 0 {
		return 0, malformed(path, errNegative)
	}
	return v, nil
}
