package domain

import (
	"time"

	schemaDomain "github.com/allisson/colkeys/internal/schema/domain"
)

// PatientsTable is the sample table provisioned by a full run. Email and
// BirthDate stay plaintext. SSN is deterministic so it can be used as the
// verification filter; names are randomized.
//
// Encrypted character columns are nvarchar: the driver binds Go strings as
// nvarchar and an encrypted column only accepts parameters of its exact type.
func PatientsTable(schema, name, encryptionKeyName string) schemaDomain.TableSpec {
	return schemaDomain.TableSpec{
		Schema: schema,
		Name:   name,
		PlainColumns: []schemaDomain.PlainColumnSpec{
			{Name: "PatientId", SQLType: "int", Identity: true, PrimaryKey: true},
			{Name: "Email", SQLType: "varchar(255)", Nullable: true},
			{Name: "BirthDate", SQLType: "datetime2", Nullable: true},
		},
		EncryptedColumns: []schemaDomain.EncryptedColumnSpec{
			{Name: "SSN", SQLType: "nvarchar(20)", EncryptionKeyName: encryptionKeyName},
			{Name: "FirstName", SQLType: "nvarchar(255)", EncryptionKeyName: encryptionKeyName, Randomized: true},
			{Name: "LastName", SQLType: "nvarchar(255)", EncryptionKeyName: encryptionKeyName, Randomized: true},
		},
		FilterColumn: "SSN",
	}
}

// SamplePatient is the record seeded and read back by a full run.
func SamplePatient() Record {
	return Record{
		{Name: "Email", Value: "joe.bloggs@test.com"},
		{Name: "SSN", Value: "SSN-989879311"},
		{Name: "FirstName", Value: "Joe"},
		{Name: "LastName", Value: "Bloggs"},
		{Name: "BirthDate", Value: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}
