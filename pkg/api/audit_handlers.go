package api

import (
	"net/http"
	"time"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/httputil"
)

// handleSearchAudit searches the audit trail, newest entries first.
func (s *Server) handleSearchAudit(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseAuditFilter(w, r)
	if !ok {
		return
	}

	entries, err := s.audit.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

// handleAuditStats aggregates audit entry counts for a time range.
func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	startTime, endTime, ok := parseTimeRange(w, r)
	if !ok {
		return
	}

	stats, err := s.audit.GetStats(r.Context(), startTime, endTime)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

func parseAuditFilter(w http.ResponseWriter, r *http.Request) (audit.SearchFilter, bool) {
	filter := audit.SearchFilter{}

	startTime, endTime, ok := parseTimeRange(w, r)
	if !ok {
		return filter, false
	}
	filter.StartTime = startTime
	filter.EndTime = endTime

	if actorID, err := httputil.ParseQueryInt64(r, "actor_id", 0); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return filter, false
	} else if actorID != 0 {
		filter.ActorID = &actorID
	}

	if orgID, err := httputil.ParseQueryInt64(r, "org_id", 0); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return filter, false
	} else if orgID != 0 {
		filter.OrganizationID = &orgID
	}

	if action := httputil.ParseQueryString(r, "action", ""); action != "" {
		filter.Actions = []audit.Action{audit.Action(action)}
	}
	if severity := httputil.ParseQueryString(r, "severity", ""); severity != "" {
		s := audit.Severity(severity)
		filter.Severity = &s
	}
	filter.ResourceType = audit.ResourceType(httputil.ParseQueryString(r, "resource_type", ""))
	filter.ResourceID = httputil.ParseQueryString(r, "resource_id", "")

	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return filter, false
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return filter, false
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, true
}

func parseTimeRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var startTime, endTime *time.Time

	if str := r.URL.Query().Get("start"); str != "" {
		parsed, err := time.Parse(time.RFC3339, str)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid start time; use RFC3339")
			return nil, nil, false
		}
		startTime = &parsed
	}
	if str := r.URL.Query().Get("end"); str != "" {
		parsed, err := time.Parse(time.RFC3339, str)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid end time; use RFC3339")
			return nil, nil, false
		}
		endTime = &parsed
	}

	return startTime, endTime, true
}
