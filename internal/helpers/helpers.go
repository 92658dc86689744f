package helpers

import (
	"fmt"
	"html/template"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/content"
)

// ActiveMenuClass is returned by MainMenuActiveClass for the current section.
const ActiveMenuClass = "active fw-bold"

// Eq reports strict equality. Values of different kinds are never equal,
// except that all numbers compare by value and every nil pointer, map,
// slice, func, chan or interface equals nil.
func Eq(a, b any) bool {
	if an, bn := isNil(a), isNil(b); an || bn {
		return an && bn
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if x, ok := number(av); ok {
		y, ok := number(bv)
		return ok && x == y
	}
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if av.Kind() == reflect.Slice && av.Len() != bv.Len() {
			return false
		}
		return av.Pointer() == bv.Pointer()
	}
	if !av.Type().Comparable() {
		return false
	}
	return a == b
}

// Neq is the negation of Eq.
func Neq(a, b any) bool {
	return !Eq(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// MainMenuActiveClass marks the menu entry for the section containing
// pageURL. The root entry only matches the home page.
func MainMenuActiveClass(linkHref, pageURL string) string {
	if (linkHref == "/" && pageURL == "/") || (linkHref != "/" && strings.HasPrefix(pageURL, linkHref)) {
		return ActiveMenuClass
	}
	return ""
}

// ReturnValueConditional picks trueClass when isTrue is truthy and the
// optional falseClass otherwise.
func ReturnValueConditional(isTrue any, trueClass string, falseClass ...string) string {
	if truth, _ := template.IsTrue(isTrue); truth {
		return trueClass
	}
	if len(falseClass) > 0 {
		return falseClass[0]
	}
	return ""
}

var (
	lower       = cases.Lower(language.Und)
	nonIDSymbol = regexp.MustCompile(`[^\w-]`)
)

// Idify turns a heading into an anchor id.
func Idify(s string) string {
	s = strings.ReplaceAll(lower.String(s), " ", "-")
	return nonIDSymbol.ReplaceAllString(s, "")
}

// EncodeURIComponent concatenates its arguments and percent-encodes
// everything outside A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EncodeURIComponent(base, appended any) string {
	s := fmt.Sprint(base) + fmt.Sprint(appended)
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func indexOf(items []*content.Item, url string) int {
	for i, it := range items {
		if it.URL == url {
			return i
		}
	}
	return -1
}

// ArticleIsInCategory reports whether items contains a page at url.
func ArticleIsInCategory(items []*content.Item, url string) bool {
	return indexOf(items, url) >= 0
}

// FindPreviousArticle returns the page before url, or nil when url is the
// first page or not in items.
func FindPreviousArticle(items []*content.Item, url string) *content.Item {
	i := indexOf(items, url)
	if i <= 0 {
		return nil
	}
	return items[i-1]
}

// FindNextArticle returns the page after url, or nil when url is the last
// page or not in items.
func FindNextArticle(items []*content.Item, url string) *content.Item {
	i := indexOf(items, url)
	if i < 0 || i == len(items)-1 {
		return nil
	}
	return items[i+1]
}
