package models

// AccessGrant is an explicit read grant from a student to a viewer.
type AccessGrant struct {
	Student string `json:"student"`
	Viewer  string `json:"viewer"`
}

// GrantAccessRequest is the payload accepted when granting access.
type GrantAccessRequest struct {
	Viewer string `json:"viewer" binding:"required"`
}

// AccessCheck answers a hasAccess query.
type AccessCheck struct {
	Student string `json:"student"`
	Viewer  string `json:"viewer"`
	Allowed bool   `json:"allowed"`
}
