package report

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given an XML document", t, func() {
		doc := []byte(`<?xml version="1.0"?>
<root kind="demo">
  <name> Field Day </name>
  <empty/>
  <item band="160">5</item>
  <item band="total">120</item>
  <nested><leaf>x</leaf></nested>
</root>`)

		Convey("When it is parsed", func() {
			tree, err := Parse(doc)
			So(err, ShouldBeNil)
			root, err := tree.Child("", "root")
			So(err, ShouldBeNil)

			Convey("Then the root is a mapping with its attribute", func() {
				So(root.Kind(), ShouldEqual, KindMapping)
				kind, ok := root.Attr("kind")
				So(ok, ShouldBeTrue)
				So(kind, ShouldEqual, "demo")
				So(root.Keys(), ShouldResemble, []string{"@kind", "name", "empty", "item", "nested"})
			})

			Convey("And text-only elements are trimmed scalars", func() {
				name, err := root.Child("root", "name")
				So(err, ShouldBeNil)
				So(name.Kind(), ShouldEqual, KindScalar)
				text, _ := name.Text("root.name")
				So(text, ShouldEqual, "Field Day")

				empty, _ := root.Child("root", "empty")
				text, _ = empty.Text("root.empty")
				So(text, ShouldEqual, "")
			})

			Convey("And repeated elements form a sequence of mappings", func() {
				items, err := root.Child("root", "item")
				So(err, ShouldBeNil)
				So(items.Kind(), ShouldEqual, KindSequence)
				So(items.Len(), ShouldEqual, 2)
				last := items.Entries()[1]
				band, _ := last.Attr("band")
				So(band, ShouldEqual, "total")
				text, _ := last.Text("root.item")
				So(text, ShouldEqual, "120")
			})

			Convey("And a sequence cannot be read as text", func() {
				items, _ := root.Child("root", "item")
				_, err := items.Text("root.item")
				So(errors.Is(err, ErrMalformedPayload), ShouldBeTrue)
			})

			Convey("And missing children report their path", func() {
				_, err := root.Child("root", "nope")
				So(errors.Is(err, ErrMissingField), ShouldBeTrue)
				var fe *FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, "root.nope")
			})

			Convey("And a scalar has no children", func() {
				name, _ := root.Child("root", "name")
				_, err := name.Child("root.name", "x")
				So(errors.Is(err, ErrMalformedPayload), ShouldBeTrue)
			})

			Convey("And single nodes view as a one item sequence", func() {
				nested, _ := root.Child("root", "nested")
				So(nested.Entries(), ShouldHaveLength, 1)
				So(nested.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given broken documents", t, func() {
		cases := map[string]string{
			"unclosed":       `<root><a>1</a>`,
			"mismatched":     `<root><a>1</b></root>`,
			"empty":          ``,
			"text only":      `just text`,
			"multiple roots": `<a/><b/>`,
		}
		for name, doc := range cases {
			Convey("When parsing "+name, func() {
				_, err := Parse([]byte(doc))

				Convey("Then it should be malformed", func() {
					So(errors.Is(err, ErrMalformedPayload), ShouldBeTrue)
				})
			})
		}
	})
}
