package domain

import (
	"strings"

	"github.com/allisson/colkeys/internal/errors"
)

// StatementKind classifies a generated statement by the object it touches.
type StatementKind string

// Statement kinds in the order a full plan executes them.
const (
	KindDropTable   StatementKind = "drop-table"
	KindDropCEK     StatementKind = "drop-cek"
	KindDropCMK     StatementKind = "drop-cmk"
	KindCreateCMK   StatementKind = "create-cmk"
	KindCreateCEK   StatementKind = "create-cek"
	KindCreateTable StatementKind = "create-table"
	KindAlterColumn StatementKind = "alter-column"
)

// dropRank orders drops in reverse dependency order.
var dropRank = map[StatementKind]int{
	KindDropTable: 0,
	KindDropCEK:   1,
	KindDropCMK:   2,
}

// Statement is one executable SQL batch.
type Statement struct {
	Kind     StatementKind
	Object   string   // name of the object created, dropped or altered
	Requires []string // keys that must exist before this statement runs
	SQL      string
}

// MigrationPlan is the ordered set of statements for one migration.
type MigrationPlan struct {
	DropStatements        []Statement
	CreateKeyStatements   []Statement
	CreateTableStatements []Statement
	AlterColumnStatements []Statement
}

// Statements flattens the plan in execution order.
func (p *MigrationPlan) Statements() []Statement {
	all := make([]Statement, 0,
		len(p.DropStatements)+len(p.CreateKeyStatements)+len(p.CreateTableStatements)+len(p.AlterColumnStatements))
	all = append(all, p.DropStatements...)
	all = append(all, p.CreateKeyStatements...)
	all = append(all, p.CreateTableStatements...)
	all = append(all, p.AlterColumnStatements...)
	return all
}

// SQL joins every statement with GO batch separators, the form printed by dry runs.
func (p *MigrationPlan) SQL() string {
	var b strings.Builder
	for _, stmt := range p.Statements() {
		b.WriteString(stmt.SQL)
		b.WriteString("\nGO\n")
	}
	return b.String()
}

func objectKey(kind StatementKind, name string) string {
	switch kind {
	case KindDropCMK, KindCreateCMK:
		return "cmk:" + strings.ToLower(name)
	case KindDropCEK, KindCreateCEK:
		return "cek:" + strings.ToLower(name)
	default:
		return "table:" + strings.ToLower(name)
	}
}

// Validate enforces dependency ordering: drops run table, then encryption key,
// then master key; no object is dropped after it was created; an encryption key
// is created only after its master key and a column only after its encryption key.
func (p *MigrationPlan) Validate() error {
	lastRank := -1
	for _, stmt := range p.DropStatements {
		rank, ok := dropRank[stmt.Kind]
		if !ok {
			return errors.Wrapf(ErrPlanOrder, "%s statement in drop section", stmt.Kind)
		}
		if rank < lastRank {
			return errors.Wrapf(ErrPlanOrder, "%s %s after a dependent drop", stmt.Kind, stmt.Object)
		}
		lastRank = rank
	}

	for _, stmt := range p.CreateKeyStatements {
		if stmt.Kind != KindCreateCMK && stmt.Kind != KindCreateCEK {
			return errors.Wrapf(ErrPlanOrder, "%s statement in create key section", stmt.Kind)
		}
	}
	for _, stmt := range p.CreateTableStatements {
		if stmt.Kind != KindCreateTable {
			return errors.Wrapf(ErrPlanOrder, "%s statement in create table section", stmt.Kind)
		}
	}
	for _, stmt := range p.AlterColumnStatements {
		if stmt.Kind != KindAlterColumn {
			return errors.Wrapf(ErrPlanOrder, "%s statement in alter column section", stmt.Kind)
		}
	}

	created := make(map[string]struct{})
	for _, stmt := range p.Statements() {
		switch stmt.Kind {
		case KindDropTable, KindDropCEK, KindDropCMK:
			if _, ok := created[objectKey(stmt.Kind, stmt.Object)]; ok {
				return errors.Wrapf(ErrPlanOrder, "%s %s after it was created", stmt.Kind, stmt.Object)
			}
		case KindCreateCEK:
			for _, req := range stmt.Requires {
				if _, ok := created[objectKey(KindCreateCMK, req)]; !ok {
					return errors.Wrapf(ErrPlanOrder, "encryption key %s before master key %s", stmt.Object, req)
				}
			}
		case KindCreateTable, KindAlterColumn:
			for _, req := range stmt.Requires {
				if _, ok := created[objectKey(KindCreateCEK, req)]; !ok {
					return errors.Wrapf(ErrPlanOrder, "%s %s before encryption key %s", stmt.Kind, stmt.Object, req)
				}
			}
		}
		if stmt.Kind == KindCreateCMK || stmt.Kind == KindCreateCEK || stmt.Kind == KindCreateTable {
			created[objectKey(stmt.Kind, stmt.Object)] = struct{}{}
		}
	}
	return nil
}
