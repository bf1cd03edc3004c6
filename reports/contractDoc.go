package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/models"
	"bitbucket.org/mmdatafocus/records_backend/utils"
)

// defaultContractTemplate backs contracts whose template name does not
// resolve, so document generation always produces something signable.
const defaultContractTemplate = `CONTRACT {{contract_number}}

{{title}}

Parties: {{company_title}} / {{person_name}}
Amount: {{amount}} {{currency}}
Period: {{start_date}} - {{end_date}}

{{description}}

Generated on {{generated_at}}.
`

// RenderContractDocument fills the contract's template with its field values
// and stores the result, returning the artifact reference. Placeholders use
// the {{field}} form; unknown placeholders are left as-is.
func RenderContractDocument(ctx context.Context, store utils.ArtifactStore, contract *models.Contract, now time.Time) (string, error) {

	template := defaultContractTemplate
	if contract.TemplateName != "" {
		data, err := store.Read(ctx, "templates/"+contract.TemplateName)
		if err == nil {
			template = string(data)
		}
		// A missing template is not an error; the built-in one serves.
	}

	body := SubstituteFields(template, contractFields(ctx, contract, now))

	hint := fmt.Sprintf("contracts/%s", utils.GenerateTimestampedFilename("contract_"+contract.ContractNumber, "txt"))
	ref, err := store.Write(ctx, hint, []byte(body), utils.ArtifactContentType(".txt"))
	if err != nil {
		return "", utils.Transient(err)
	}
	return ref, nil
}

// SubstituteFields replaces every {{key}} placeholder with its value.
func SubstituteFields(template string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func contractFields(ctx context.Context, contract *models.Contract, now time.Time) map[string]string {
	fields := map[string]string{
		"contract_number": contract.ContractNumber,
		"title":           contract.Title,
		"status":          string(contract.Status),
		"amount":          contract.Amount.StringFixed(2),
		"currency":        "TRY",
		"start_date":      contract.StartDate.Format("2006-01-02"),
		"end_date":        contract.EndDate.Format("2006-01-02"),
		"description":     contract.Description,
		"company_title":   "",
		"person_name":     "",
		"generated_at":    now.Format("2006-01-02 15:04"),
	}

	if contract.RelatedCompanyId != nil {
		if company, err := models.GetCompany(ctx, contract.BusinessId, *contract.RelatedCompanyId); err == nil {
			fields["company_title"] = company.Title
		}
	}
	if contract.RelatedPersonId != nil {
		if person, err := models.GetPerson(ctx, contract.BusinessId, *contract.RelatedPersonId); err == nil {
			fields["person_name"] = person.FullName
			fields["person_national_id"] = person.MaskedNationalId()
		}
	}
	return fields
}
