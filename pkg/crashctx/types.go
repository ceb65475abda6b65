package crashctx

import "time"

// TrackingConsent is the user's current data-collection consent.
type TrackingConsent string

const (
	ConsentGranted    TrackingConsent = "granted"
	ConsentNotGranted TrackingConsent = "not-granted"
	ConsentPending    TrackingConsent = "pending"
)

// UserInfo identifies the currently logged-in user, as far as the
// application has told the SDK.
type UserInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// NetworkConnectionInfo describes the device's current connectivity.
type NetworkConnectionInfo struct {
	Reachability string   `json:"reachability"`
	Interfaces   []string `json:"interfaces,omitempty"`
	SupportsIPv4 bool     `json:"supports_ipv4"`
	SupportsIPv6 bool     `json:"supports_ipv6"`
}

// CarrierInfo describes the cellular carrier, when one is in use.
type CarrierInfo struct {
	Name           string `json:"name,omitempty"`
	Technology     string `json:"technology,omitempty"`
	ISOCountryCode string `json:"iso_country_code,omitempty"`
}

// ViewEvent is the last UI view the session reported as active.
type ViewEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Snapshot is the immutable aggregate handed to out-of-band consumers
// (crash reporters and the like). Fields are updated independently;
// cross-field consistency is eventual by design, but every Snapshot a
// reader obtains is a whole value that existed at one point in time.
type Snapshot struct {
	TrackingConsent   TrackingConsent
	UserInfo          UserInfo
	NetworkConnection *NetworkConnectionInfo
	Carrier           *CarrierInfo
	LastView          *ViewEvent
}
