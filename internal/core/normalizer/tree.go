package normalizer

import "github.com/beevik/etree"

// The walk helpers match elements by local tag only. Vendor exports use
// the same element names under differing namespace prefixes; etree keeps
// the prefix in Space and the local name in Tag, so comparing Tag makes
// every parser namespace-agnostic without per-schema prefix handling.

// walk visits e and its descendants depth-first until fn returns false.
func walk(e *etree.Element, fn func(*etree.Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.ChildElements() {
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

// findAll returns all descendants of e (excluding e) with the given
// local tag, in document order.
func findAll(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		walk(child, func(el *etree.Element) bool {
			if el.Tag == tag {
				out = append(out, el)
			}
			return true
		})
	}
	return out
}

// findFirst returns the first descendant of e with the given local tag.
func findFirst(e *etree.Element, tag string) *etree.Element {
	var found *etree.Element
	for _, child := range e.ChildElements() {
		walk(child, func(el *etree.Element) bool {
			if el.Tag == tag {
				found = el
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// childElements returns the direct children of e with the given local tag.
func childElements(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
