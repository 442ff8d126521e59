package peering

import (
	"time"

	"a2a_registry/internal/model"
)

// Match pairs a local mirror record with the remote entry that shares its
// location URL.
type Match struct {
	Local  model.AgentRecord
	Remote RemoteAgent
}

// Plan is the full-mirror reconciliation diff between the local peer-tagged
// set and a remote public listing, keyed by location_url. Applying a plan
// makes the local mirror equal the remote payload: entries only the remote
// has are added, matches are updated (no content diff — every match counts),
// and local entries absent from this round's payload are removed.
type Plan struct {
	ToAdd    []RemoteAgent
	ToUpdate []Match
	ToRemove []model.AgentRecord
}

// Counts returns (added, updated, removed).
func (p Plan) Counts() (int, int, int) {
	return len(p.ToAdd), len(p.ToUpdate), len(p.ToRemove)
}

// BuildPlan computes the reconciliation plan. Remote entries without a
// location URL are ignored; duplicate remote URLs collapse to the last entry
// (two remote agents sharing a URL are treated as the same local entity,
// last write wins).
func BuildPlan(local []model.AgentRecord, remote []RemoteAgent) Plan {
	byURL := make(map[string]RemoteAgent, len(remote))
	order := make([]string, 0, len(remote))
	for _, r := range remote {
		if r.LocationURL == "" {
			continue
		}
		if _, seen := byURL[r.LocationURL]; !seen {
			order = append(order, r.LocationURL)
		}
		byURL[r.LocationURL] = r
	}

	localByURL := make(map[string]model.AgentRecord, len(local))
	for _, l := range local {
		localByURL[l.LocationURL] = l
	}

	var plan Plan
	for _, url := range order {
		r := byURL[url]
		if l, ok := localByURL[url]; ok {
			plan.ToUpdate = append(plan.ToUpdate, Match{Local: l, Remote: r})
		} else {
			plan.ToAdd = append(plan.ToAdd, r)
		}
	}
	for _, l := range local {
		if _, ok := byURL[l.LocationURL]; !ok {
			plan.ToRemove = append(plan.ToRemove, l)
		}
	}
	return plan
}

// DueForSync reports whether a peer should be synchronized now: never synced
// before, or last synced at least its configured interval ago. A zero or
// negative per-peer interval falls back to defaultIntervalMinutes.
func DueForSync(peer model.PeerRegistry, now time.Time, defaultIntervalMinutes int) bool {
	if !peer.IsActive || !peer.SyncEnabled {
		return false
	}
	if peer.LastSyncAt == nil {
		return true
	}
	interval := peer.SyncIntervalMinutes
	if interval <= 0 {
		interval = defaultIntervalMinutes
	}
	return now.Sub(*peer.LastSyncAt) >= time.Duration(interval)*time.Minute
}
