// Package format converts markdown written by the backend into WhatsApp's
// lightweight markup (*bold*, _italic_, ~strike~, ```mono```).
//
// The converter parses with goldmark and walks the AST, so anything goldmark
// understands degrades to readable plain text rather than raw markdown
// symbols. It is only applied when bridge.markdown is enabled.
package format
