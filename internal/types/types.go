package types

import (
	"fmt"
	"strings"
)

// Stance is a voter's ordinal political-support classification
type Stance string

const (
	StanceStrongSupport Stance = "STRONG_SUPPORT"
	StanceSupport       Stance = "SUPPORT"
	StanceLeanSupport   Stance = "LEAN_SUPPORT"
	StanceUndecided     Stance = "UNDECIDED"
	StanceNeutral       Stance = "NEUTRAL"
	StanceLeanOppose    Stance = "LEAN_OPPOSE"
	StanceOppose        Stance = "OPPOSE"
	StanceStrongOppose  Stance = "STRONG_OPPOSE"
)

// AllStances lists stances from strongest support to strongest opposition
var AllStances = []Stance{
	StanceStrongSupport,
	StanceSupport,
	StanceLeanSupport,
	StanceUndecided,
	StanceNeutral,
	StanceLeanOppose,
	StanceOppose,
	StanceStrongOppose,
}

func (s Stance) Valid() bool {
	for _, v := range AllStances {
		if s == v {
			return true
		}
	}
	return false
}

// IsSupport reports whether the stance falls in the support bucket
func (s Stance) IsSupport() bool {
	return s == StanceStrongSupport || s == StanceSupport || s == StanceLeanSupport
}

// IsOppose reports whether the stance falls in the oppose bucket
func (s Stance) IsOppose() bool {
	return s == StanceStrongOppose || s == StanceOppose || s == StanceLeanOppose
}

// ParseStance normalizes case and whitespace before matching
func ParseStance(raw string) (Stance, error) {
	s := Stance(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid stance %q", raw)
	}
	return s, nil
}

// RelationType classifies a relationship edge between two voters
type RelationType string

const (
	RelationFamily    RelationType = "FAMILY"
	RelationSpouse    RelationType = "SPOUSE"
	RelationParent    RelationType = "PARENT"
	RelationChild     RelationType = "CHILD"
	RelationSibling   RelationType = "SIBLING"
	RelationFriend    RelationType = "FRIEND"
	RelationNeighbor  RelationType = "NEIGHBOR"
	RelationCoworker  RelationType = "COWORKER"
	RelationCommunity RelationType = "COMMUNITY"
	RelationOther     RelationType = "OTHER"
)

var AllRelationTypes = []RelationType{
	RelationFamily, RelationSpouse, RelationParent, RelationChild, RelationSibling,
	RelationFriend, RelationNeighbor, RelationCoworker, RelationCommunity, RelationOther,
}

func (r RelationType) Valid() bool {
	for _, v := range AllRelationTypes {
		if r == v {
			return true
		}
	}
	return false
}

func ParseRelationType(raw string) (RelationType, error) {
	r := RelationType(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid relation type %q", raw)
	}
	return r, nil
}

// ContactOutcome is the result recorded for a single contact attempt
type ContactOutcome string

const (
	OutcomePositive   ContactOutcome = "POSITIVE"
	OutcomeNeutral    ContactOutcome = "NEUTRAL"
	OutcomeNegative   ContactOutcome = "NEGATIVE"
	OutcomeNoResponse ContactOutcome = "NO_RESPONSE"
	OutcomeNotHome    ContactOutcome = "NOT_HOME"
)

var AllContactOutcomes = []ContactOutcome{
	OutcomePositive, OutcomeNeutral, OutcomeNegative, OutcomeNoResponse, OutcomeNotHome,
}

func (o ContactOutcome) Valid() bool {
	for _, v := range AllContactOutcomes {
		if o == v {
			return true
		}
	}
	return false
}

func ParseContactOutcome(raw string) (ContactOutcome, error) {
	o := ContactOutcome(strings.ToUpper(strings.TrimSpace(raw)))
	if !o.Valid() {
		return "", fmt.Errorf("invalid contact outcome %q", raw)
	}
	return o, nil
}

// ContactType is the channel used to reach a voter
type ContactType string

const (
	ContactHomeVisit   ContactType = "HOME_VISIT"
	ContactStreetVisit ContactType = "STREET_VISIT"
	ContactPhoneCall   ContactType = "PHONE_CALL"
	ContactSMS         ContactType = "SMS"
	ContactLine        ContactType = "LINE"
	ContactEmail       ContactType = "EMAIL"
	ContactSocialMedia ContactType = "SOCIAL_MEDIA"
	ContactEvent       ContactType = "EVENT"
	ContactMeeting     ContactType = "MEETING"
	ContactMarket      ContactType = "MARKET"
	ContactOther       ContactType = "OTHER"
)

var AllContactTypes = []ContactType{
	ContactHomeVisit, ContactStreetVisit, ContactPhoneCall, ContactSMS, ContactLine,
	ContactEmail, ContactSocialMedia, ContactEvent, ContactMeeting, ContactMarket, ContactOther,
}

func (t ContactType) Valid() bool {
	for _, v := range AllContactTypes {
		if t == v {
			return true
		}
	}
	return false
}

func ParseContactType(raw string) (ContactType, error) {
	t := ContactType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid contact type %q", raw)
	}
	return t, nil
}

// DistrictLevel orders administrative units from coarsest to finest
type DistrictLevel string

const (
	LevelCity         DistrictLevel = "CITY"
	LevelDistrict     DistrictLevel = "DISTRICT"
	LevelVillage      DistrictLevel = "VILLAGE"
	LevelNeighborhood DistrictLevel = "NEIGHBORHOOD"
)

var levelRank = map[DistrictLevel]int{
	LevelCity:         0,
	LevelDistrict:     1,
	LevelVillage:      2,
	LevelNeighborhood: 3,
}

func (l DistrictLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank returns 0 for CITY up to 3 for NEIGHBORHOOD, -1 when invalid
func (l DistrictLevel) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

func ParseDistrictLevel(raw string) (DistrictLevel, error) {
	l := DistrictLevel(strings.ToUpper(strings.TrimSpace(raw)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid district level %q", raw)
	}
	return l, nil
}
