package types

import "fmt"

// ValidateDistrictHierarchy checks that every parent exists, sits at a coarser
// level than its child and that no parent chain loops back on itself.
func ValidateDistrictHierarchy(districts []District) error {
	byID := make(map[string]District, len(districts))
	for _, d := range districts {
		if !d.Level.Valid() {
			return fmt.Errorf("district %s has invalid level %q", d.ID, d.Level)
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("duplicate district id %s", d.ID)
		}
		byID[d.ID] = d
	}

	for _, d := range districts {
		if d.ParentID == "" {
			continue
		}
		parent, ok := byID[d.ParentID]
		if !ok {
			return fmt.Errorf("district %s references missing parent %s", d.ID, d.ParentID)
		}
		if parent.Level.Rank() >= d.Level.Rank() {
			return fmt.Errorf("district %s (%s) cannot be nested under %s (%s)",
				d.ID, d.Level, parent.ID, parent.Level)
		}

		seen := map[string]bool{d.ID: true}
		for cur := parent; ; {
			if seen[cur.ID] {
				return fmt.Errorf("district hierarchy cycle through %s", cur.ID)
			}
			seen[cur.ID] = true
			if cur.ParentID == "" {
				break
			}
			next, ok := byID[cur.ParentID]
			if !ok {
				break
			}
			cur = next
		}
	}

	return nil
}

// ValidateDistrictParent checks a single new district against its stored parent
func ValidateDistrictParent(child District, parent *District) error {
	if child.ParentID == "" {
		return nil
	}
	if parent == nil {
		return fmt.Errorf("parent district %s not found", child.ParentID)
	}
	if parent.Level.Rank() >= child.Level.Rank() {
		return fmt.Errorf("district level %s cannot be nested under %s", child.Level, parent.Level)
	}
	return nil
}
