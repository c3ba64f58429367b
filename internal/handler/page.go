package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"missive-proxy/web"
)

// widgetTemplate is parsed once at startup; the asset is embedded so a
// broken template is a build defect, not a runtime condition.
var widgetTemplate = template.Must(template.New("widget").Parse(web.WidgetPage))

// pageData is the template payload for the widget page.
type pageData struct {
	APIBase     string
	Token       string
	StoreDomain string
}

// handlePage renders the widget page. Page-load auth failures get a plain
// unauthorized response with no page body; the iframe shows the text and
// nothing else.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != h.settings.WidgetToken {
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return
	}

	data := pageData{
		APIBase:     "/" + h.settings.EndpointPath + "/",
		Token:       token,
		StoreDomain: h.settings.StoreDomain,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetTemplate.Execute(w, data); err != nil {
		h.logger.Error("widget template failed", slog.String("error", err.Error()))
	}
}
