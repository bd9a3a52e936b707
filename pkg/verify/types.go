package verify

import "strings"

// publishedStatus is the platform's publish_status value for live sites.
const publishedStatus = "PUBLISHED"

// SiteStatus is the platform API's view of a single site.
type SiteStatus struct {
	PublishStatus     string `json:"publish_status"`
	LastPublished     string `json:"last_published_date"`
	FirstPublished    string `json:"first_published_date"`
	UnpublicationDate string `json:"unpublication_date"`
	SiteDomain        string `json:"site_domain"`
	FQDN              string `json:"fqdn"`
	PreviewURL        string `json:"preview_site_url"`
	CreationDate      string `json:"creation_date"`
	ModificationDate  string `json:"modification_date"`
}

// Published reports whether the platform considers the site live.
func (s *SiteStatus) Published() bool {
	return s.PublishStatus == publishedStatus
}

// Activity is one timestamped event from a site's activity history.
type Activity struct {
	Type        string `json:"activity_type"`
	Date        string `json:"date"`
	User        string `json:"user"`
	Description string `json:"description"`
}

// IsPublishEvent reports whether the activity concerns publishing. This
// also matches unpublish events.
func (a *Activity) IsPublishEvent() bool {
	return strings.Contains(strings.ToLower(a.Type), "publish")
}

// IsUnpublishEvent reports whether the activity is an unpublish event.
func (a *Activity) IsUnpublishEvent() bool {
	return strings.Contains(strings.ToLower(a.Type), "unpublish")
}
