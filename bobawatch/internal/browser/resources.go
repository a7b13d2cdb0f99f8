// CLAUDE:SUMMARY Drops configured resource groups (images, fonts, media, stylesheets) on the check page via request hijacking.
package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceGroups names the CDP resource types each BOBAWATCH_BLOCK_RESOURCES
// entry covers. Documents, scripts and XHR are absent: the menu is rendered
// client side.
var resourceGroups = map[string][]proto.NetworkResourceType{
	"images":      {proto.NetworkResourceTypeImage},
	"fonts":       {proto.NetworkResourceTypeFont},
	"media":       {proto.NetworkResourceTypeMedia},
	"stylesheets": {proto.NetworkResourceTypeStylesheet},
}

// blockedTypes expands group names into the set of CDP types to fail.
// Unknown names are ignored; config validation rejects them earlier.
func blockedTypes(groups []string) map[proto.NetworkResourceType]bool {
	out := make(map[proto.NetworkResourceType]bool)
	for _, g := range groups {
		for _, rt := range resourceGroups[strings.ToLower(strings.TrimSpace(g))] {
			out[rt] = true
		}
	}
	return out
}

// blockResources fails every request whose type falls in one of groups.
// The returned router must be stopped when the page closes.
func blockResources(page *rod.Page, groups []string) *rod.HijackRouter {
	blocked := blockedTypes(groups)

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
