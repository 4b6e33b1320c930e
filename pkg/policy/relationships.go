package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ViewerRelationships is the precomputed relationship snapshot consumed by
// content visibility rules. Both the in-memory evaluator and the SQL filter
// builder are rendered from this same snapshot, so a record-level check and
// a bulk listing can never disagree.
type ViewerRelationships struct {
	ViewerID uuid.UUID
	// TeammateIDs are the viewer's own teammate records across every organization.
	TeammateIDs []uuid.UUID
	// TeammateOrgIDs are the organizations those records belong to.
	TeammateOrgIDs []uuid.UUID
	// DirectReports holds, per company, the teammate records whose active
	// tenure in that company names one of the viewer's teammates as manager.
	// Manager standing in one company carries nothing in another.
	DirectReports []CompanyReports
}

// CompanyReports is the direct-report set of one company.
type CompanyReports struct {
	CompanyID   uuid.UUID
	TeammateIDs []uuid.UUID
}

func (r ViewerRelationships) IsTeammate(teammateID uuid.UUID) bool {
	for _, id := range r.TeammateIDs {
		if id == teammateID {
			return true
		}
	}
	return false
}

func (r ViewerRelationships) IsTeammateOfOrg(orgID uuid.UUID) bool {
	for _, id := range r.TeammateOrgIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

// IsDirectReportIn reports whether teammateID is managed by one of the
// viewer's teammates through an active tenure in the given company.
func (r ViewerRelationships) IsDirectReportIn(companyID, teammateID uuid.UUID) bool {
	for _, group := range r.DirectReports {
		if group.CompanyID == companyID && containsID(group.TeammateIDs, teammateID) {
			return true
		}
	}
	return false
}

func (r *ViewerRelationships) addDirectReport(companyID, teammateID uuid.UUID) {
	for i := range r.DirectReports {
		if r.DirectReports[i].CompanyID != companyID {
			continue
		}
		if !containsID(r.DirectReports[i].TeammateIDs, teammateID) {
			r.DirectReports[i].TeammateIDs = append(r.DirectReports[i].TeammateIDs, teammateID)
		}
		return
	}
	r.DirectReports = append(r.DirectReports, CompanyReports{
		CompanyID:   companyID,
		TeammateIDs: []uuid.UUID{teammateID},
	})
}

// ResolveViewerRelationships loads the snapshot once per call. An unknown
// viewer yields empty sets, never an error.
func ResolveViewerRelationships(ctx context.Context, reader DirectoryReader, viewerID uuid.UUID) (ViewerRelationships, error) {
	out := ViewerRelationships{ViewerID: viewerID}
	if viewerID == uuid.Nil {
		return out, nil
	}
	memberships, err := reader.TeammatesOf(ctx, viewerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return out, nil
		}
		return out, err
	}
	for _, tm := range memberships {
		out.TeammateIDs = append(out.TeammateIDs, tm.ID())
		if !containsID(out.TeammateOrgIDs, tm.OrganizationID()) {
			out.TeammateOrgIDs = append(out.TeammateOrgIDs, tm.OrganizationID())
		}
		managed, err := reader.ActiveTenuresManagedBy(ctx, tm.ID())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return out, err
		}
		for _, t := range managed {
			out.addDirectReport(t.CompanyID(), t.TeammateID())
		}
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
