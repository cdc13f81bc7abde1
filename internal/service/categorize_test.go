package service

import (
	"testing"

	"github.com/octobees/contact-finder/internal/entity"
)

func TestCategorize(t *testing.T) {
	tests := map[string]struct {
		kind    entity.ContactKind
		value   string
		role    string
		context string
		want    entity.Category
	}{
		"german general inbox":    {kind: entity.KindEmail, value: "kontakt@acme.de", want: entity.CategoryGeneral},
		"support inbox":           {kind: entity.KindEmail, value: "support@acme.de", want: entity.CategoryGeneral},
		"german sales":            {kind: entity.KindEmail, value: "vertrieb@acme.de", want: entity.CategorySales},
		"compound sales":          {kind: entity.KindEmail, value: "salesteam@acme.de", want: entity.CategorySales},
		"hr token":                {kind: entity.KindEmail, value: "hr@acme.de", want: entity.CategoryHR},
		"short keyword in word":   {kind: entity.KindEmail, value: "kitchen@acme.de", want: entity.CategoryGeneral},
		"bewerbung":               {kind: entity.KindEmail, value: "bewerbung@acme.de", want: entity.CategoryHR},
		"webmaster":               {kind: entity.KindEmail, value: "webmaster@acme.de", want: entity.CategoryTechnical},
		"press":                   {kind: entity.KindEmail, value: "presse@acme.de", want: entity.CategoryMarketing},
		"accounting":              {kind: entity.KindEmail, value: "buchhaltung@acme.de", want: entity.CategoryFinance},
		"ceo":                     {kind: entity.KindEmail, value: "ceo@acme.de", want: entity.CategoryExecutive},
		"first.last is personal":  {kind: entity.KindEmail, value: "erika.muster@acme.de", want: entity.CategoryPersonal},
		"role wins over local":    {kind: entity.KindEmail, value: "m.mustermann@acme.de", role: "Geschäftsführer", want: entity.CategoryExecutive},
		"context names the role":  {kind: entity.KindEmail, value: "max.mustermann@acme.de", context: "Geschäftsführer: Max Mustermann", want: entity.CategoryExecutive},
		"context kontakt ignored": {kind: entity.KindEmail, value: "jan.beispiel@acme.de", context: "Kontakt: Jan Beispiel", want: entity.CategoryPersonal},
		"french role":             {kind: entity.KindName, value: "Jean Dupont", role: "Directeur commercial", want: entity.CategoryExecutive},
		"spanish hr":              {kind: entity.KindEmail, value: "rrhh@acme.es", want: entity.CategoryHR},
		"phone with context":      {kind: entity.KindPhone, value: "+493012345670", context: "Vertrieb Tel. 030 1234567-0", want: entity.CategorySales},
		"phone default":           {kind: entity.KindPhone, value: "+493012345670", context: "Tel. 030 1234567-0", want: entity.CategoryGeneral},
		"phrase role":             {kind: entity.KindName, value: "Erika Muster", role: "Human Resources", want: entity.CategoryHR},
		"unknown single token":    {kind: entity.KindEmail, value: "xyz@acme.de", want: entity.CategoryGeneral},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Categorize(tt.kind, tt.value, tt.role, tt.context); got != tt.want {
				t.Fatalf("Categorize(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
