// Package web embeds the chat widget served at / and /widget.js.
package web

import _ "embed"

//go:embed widget.html
var widgetHTML []byte

//go:embed widget.js
var widgetJS []byte

// WidgetHTML returns the chat widget markup.
func WidgetHTML() []byte {
	return widgetHTML
}

// WidgetJS returns the loader script host pages include.
func WidgetJS() []byte {
	return widgetJS
}
