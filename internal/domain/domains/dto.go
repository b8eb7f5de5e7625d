package domains

import "panel-service/internal/domain/listquery"

// DomainRequest is the body of both create and update; update replaces both fields.
type DomainRequest struct {
	Name      string `json:"name"`
	Privilege string `json:"privilege"`
}

type ListResponse struct {
	Domains             listquery.Page[Domain] `json:"domains"`
	Filters             listquery.Query        `json:"filters"`
	Stats               Stats                  `json:"stats"`
	SuggestedPrivileges []string               `json:"suggested_privileges"`
}
