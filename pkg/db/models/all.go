package models

// All lists the persisted models in dependency order for schema bootstrap.
func All() []any {
	return []any{
		&Item{},
		&CompositionEdge{},
		&MediaReference{},
		&CartLine{},
		&AdminUser{},
	}
}
