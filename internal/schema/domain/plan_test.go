package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() *MigrationPlan {
	return &MigrationPlan{
		DropStatements: []Statement{
			{Kind: KindDropTable, Object: "Patients", SQL: "drop table"},
			{Kind: KindDropCEK, Object: "CEK1", SQL: "drop cek"},
			{Kind: KindDropCMK, Object: "CMK1", SQL: "drop cmk"},
		},
		CreateKeyStatements: []Statement{
			{Kind: KindCreateCMK, Object: "CMK1", SQL: "create cmk"},
			{Kind: KindCreateCEK, Object: "CEK1", Requires: []string{"CMK1"}, SQL: "create cek"},
		},
		CreateTableStatements: []Statement{
			{Kind: KindCreateTable, Object: "Patients", Requires: []string{"CEK1"}, SQL: "create table"},
		},
	}
}

func TestMigrationPlan_Statements(t *testing.T) {
	plan := validPlan()
	plan.AlterColumnStatements = []Statement{{Kind: KindAlterColumn, Object: "Patients", SQL: "alter"}}

	var kinds []StatementKind
	for _, stmt := range plan.Statements() {
		kinds = append(kinds, stmt.Kind)
	}
	assert.Equal(t, []StatementKind{
		KindDropTable, KindDropCEK, KindDropCMK, KindCreateCMK, KindCreateCEK, KindCreateTable, KindAlterColumn,
	}, kinds)

	assert.Equal(t,
		"drop table\nGO\ndrop cek\nGO\ndrop cmk\nGO\ncreate cmk\nGO\ncreate cek\nGO\ncreate table\nGO\nalter\nGO\n",
		plan.SQL(),
	)
}

func TestMigrationPlan_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		require.NoError(t, validPlan().Validate())
	})

	t.Run("Success_Empty", func(t *testing.T) {
		require.NoError(t, (&MigrationPlan{}).Validate())
	})

	tests := []struct {
		name   string
		mutate func(*MigrationPlan)
	}{
		{
			name: "Error_DropMasterKeyBeforeEncryptionKey",
			mutate: func(p *MigrationPlan) {
				p.DropStatements[1], p.DropStatements[2] = p.DropStatements[2], p.DropStatements[1]
			},
		},
		{
			name: "Error_DropEncryptionKeyBeforeTable",
			mutate: func(p *MigrationPlan) {
				p.DropStatements[0], p.DropStatements[1] = p.DropStatements[1], p.DropStatements[0]
			},
		},
		{
			name: "Error_EncryptionKeyBeforeMasterKey",
			mutate: func(p *MigrationPlan) {
				p.CreateKeyStatements[0], p.CreateKeyStatements[1] = p.CreateKeyStatements[1], p.CreateKeyStatements[0]
			},
		},
		{
			name: "Error_TableBeforeEncryptionKey",
			mutate: func(p *MigrationPlan) {
				p.CreateKeyStatements = p.CreateKeyStatements[:1]
			},
		},
		{
			name: "Error_AlterBeforeEncryptionKey",
			mutate: func(p *MigrationPlan) {
				p.AlterColumnStatements = []Statement{{Kind: KindAlterColumn, Object: "Patients", Requires: []string{"CEK9"}}}
			},
		},
		{
			name: "Error_CreateInDropSection",
			mutate: func(p *MigrationPlan) {
				p.DropStatements = append(p.DropStatements, Statement{Kind: KindCreateCMK, Object: "CMK1"})
			},
		},
		{
			name: "Error_DropInCreateSection",
			mutate: func(p *MigrationPlan) {
				p.CreateKeyStatements = append(p.CreateKeyStatements, Statement{Kind: KindDropCMK, Object: "CMK1"})
			},
		},
		{
			name: "Error_WrongTableKind",
			mutate: func(p *MigrationPlan) {
				p.CreateTableStatements[0].Kind = KindAlterColumn
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(plan)
			assert.ErrorIs(t, plan.Validate(), ErrPlanOrder)
		})
	}
}
