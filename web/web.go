// Package web holds the embedded widget page assets.
package web

import _ "embed"

// WidgetPage is the html/template source for the widget page.
//
//go:embed widget.html
var WidgetPage string
