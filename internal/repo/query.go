package repo

type (
	QueryField     string
	OrderDirection string
)

const (
	Desc OrderDirection = "desc"
	Asc  OrderDirection = "asc"

	IDField            QueryField = "id"
	NameField          QueryField = "name"
	BaseURIField       QueryField = "base_uri"
	GitRepositoryField QueryField = "git_repository"
	GroupField         QueryField = "group_name"
	ArtifactoryIDField QueryField = "artifactory_id"
	ArtifactIDField    QueryField = "artifact_id"
	EnvironmentField   QueryField = "environment"
	DataCenterField    QueryField = "data_center"
	ApplicationField   QueryField = "application"
	StripeField        QueryField = "stripe"
	InstanceField      QueryField = "instance"
	IsActiveField      QueryField = "is_active"
	EffectiveUTCField  QueryField = "effective_utc"

	DeactivatedUsernameField QueryField = "deactivated_username"
	DeactivatedUTCField      QueryField = "deactivated_utc"
)

// Condition is one field = value predicate; conditions in a CompositeKey are
// combined with AND.
type Condition struct {
	Field QueryField
	Value any
}

// CompositeKey is a collection of QueryField and matching values that are
// collectively used to find a record.
type CompositeKey struct {
	Conds []Condition
}

// NewCompositeKey creates and returns a new CompositeKey.
func NewCompositeKey() CompositeKey {
	return CompositeKey{Conds: []Condition{}}
}

// Where adds a condition to the CompositeKey.
func (c CompositeKey) Where(q QueryField, v any) CompositeKey {
	c.Conds = append(c.Conds, Condition{Field: q, Value: v})
	return c
}

type Order struct {
	Field     QueryField
	Direction OrderDirection
}

type Preload []string

// UpdateFields restricts which columns a Patch writes. All selects every
// column, including zero values.
type UpdateFields struct {
	All    bool
	Fields []QueryField
}

type Query struct {
	CompositeKeys []CompositeKey
	PreloadModel  Preload
	OrderFields   []Order
	UpdateFields  UpdateFields
	Limit         int
	Offset        int
}

// NewQuery creates an empty Query.
func NewQuery() *Query {
	return &Query{}
}

// Where adds a composite key; multiple keys are combined with OR.
func (q *Query) Where(ck CompositeKey) *Query {
	q.CompositeKeys = append(q.CompositeKeys, ck)
	return q
}

func (q *Query) Preload(p Preload) *Query {
	q.PreloadModel = append(q.PreloadModel, p...)
	return q
}

func (q *Query) OrderBy(field QueryField, direction OrderDirection) *Query {
	q.OrderFields = append(q.OrderFields, Order{Field: field, Direction: direction})
	return q
}

func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) SetOffset(offset int) *Query {
	q.Offset = offset
	return q
}

// Update restricts a Patch to the given columns.
func (q *Query) Update(fields ...QueryField) *Query {
	q.UpdateFields.Fields = append(q.UpdateFields.Fields, fields...)
	return q
}

// UpdateAll makes a Patch write every column.
func (q *Query) UpdateAll(all bool) *Query {
	q.UpdateFields.All = all
	return q
}
