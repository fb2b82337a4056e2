package consentform

import (
	"github.com/goliatone/go-consentform/pkg/assembler"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Element ids of the default document.
const (
	IDKlaroForm          = "klaro-form"
	IDLanguage           = "lang"
	IDStorageMethod      = "storageMethod"
	IDConsentTitle       = "consentTitle"
	IDConsentDescription = "consentDescription"
	IDEntries            = "consent-options-container"
	IDAddEntry           = "add-consent-option"
	IDGenerate           = "generate-template"
	IDOutput             = "gtm-template-output"
	IDTemplateCode       = "gtm-template-code"
	IDTriggerCode        = "gtm-trigger-code"
	IDVariableCode       = "gtm-variable-code"
	IDErrorMessage       = "error-message"
	IDDebugForm          = "debug-form"
	IDSimulationStatus   = "simulation-status"
	IDPolicyForm         = "policy-form"
	IDPolicyFile         = "policy-file"
	IDAnalyticsSection   = "consent-analytics-section"
	IDAnalyticsData      = "consent-analytics-data"
	IDAnalyticsRefresh   = "consent-analytics-refresh"
)

// DebugCheckboxID returns the id of a category's simulation checkbox.
func DebugCheckboxID(category string) string {
	return "debug-" + category
}

// Storage methods offered by the settings select.
var StorageMethods = []view.SelectOption{
	{Value: "localStorage", Label: "Local Storage", Selected: true},
	{Value: "cookie", Label: "Cookie"},
}

// Layout holds the handles of the default document. Components receive
// these handles; nothing looks nodes up by id at run time.
type Layout struct {
	Root *view.Node

	Form     *view.Node
	Settings assembler.Fields
	Entries  *view.Node
	AddEntry *view.Node
	Generate *view.Node

	Output   *view.Node
	Template *view.Node
	Trigger  *view.Node
	Variable *view.Node
	Error    *view.Node

	DebugForm        *view.Node
	Checkboxes       []assembler.Checkbox
	SimulationStatus *view.Node

	PolicyForm *view.Node
	PolicyFile *view.Node

	AnalyticsSection *view.Node
	AnalyticsData    *view.Node
	AnalyticsRefresh *view.Node
}

// NewLayout builds the default document. Without analytics the section and
// its mount are left out entirely.
func NewLayout(categories []string, withAnalytics bool) *Layout {
	l := &Layout{Root: view.New(view.TagDiv, view.WithID("consent-console"))}

	l.Settings = assembler.Fields{
		Language:           view.New(view.TagInput, view.WithID(IDLanguage), view.WithName(IDLanguage), view.WithType("text"), view.WithValue("en"), view.Required()),
		StorageMethod:      view.New(view.TagSelect, view.WithID(IDStorageMethod), view.WithName(IDStorageMethod), view.WithOptions(StorageMethods...)),
		ConsentTitle:       view.New(view.TagInput, view.WithID(IDConsentTitle), view.WithName(IDConsentTitle), view.WithType("text"), view.Required()),
		ConsentDescription: view.New(view.TagTextArea, view.WithID(IDConsentDescription), view.WithName(IDConsentDescription), view.Required()),
	}
	l.Entries = view.New(view.TagDiv, view.WithID(IDEntries))
	l.AddEntry = view.New(view.TagButton, view.WithID(IDAddEntry), view.WithType("button"), view.WithText("Add Consent Option"))
	l.Generate = view.New(view.TagButton, view.WithID(IDGenerate), view.WithType("submit"), view.WithText("Generate GTM Template"))
	l.Form = view.New(view.TagForm, view.WithID(IDKlaroForm)).Append(
		view.New(view.TagH2, view.WithText("Klaro Configuration")),
		view.New(view.TagLabel, view.WithText("Language:")), l.Settings.Language,
		view.New(view.TagLabel, view.WithText("Storage Method:")), l.Settings.StorageMethod,
		view.New(view.TagLabel, view.WithText("Consent Title:")), l.Settings.ConsentTitle,
		view.New(view.TagLabel, view.WithText("Consent Description:")), l.Settings.ConsentDescription,
		view.New(view.TagH2, view.WithText("Consent Options")),
		l.Entries,
		l.AddEntry,
		l.Generate,
	)

	l.Template = view.New(view.TagCode, view.WithID(IDTemplateCode))
	l.Trigger = view.New(view.TagCode, view.WithID(IDTriggerCode))
	l.Variable = view.New(view.TagCode, view.WithID(IDVariableCode))
	l.Output = view.New(view.TagSection, view.WithID(IDOutput), view.Hidden()).Append(
		view.New(view.TagH2, view.WithText("GTM Template")), view.New(view.TagPre).Append(l.Template),
		view.New(view.TagH2, view.WithText("GTM Trigger")), view.New(view.TagPre).Append(l.Trigger),
		view.New(view.TagH2, view.WithText("GTM Variable")), view.New(view.TagPre).Append(l.Variable),
	)
	l.Error = view.New(view.TagP, view.WithID(IDErrorMessage), view.WithClass("error"), view.Hidden())

	l.DebugForm = view.New(view.TagForm, view.WithID(IDDebugForm)).Append(
		view.New(view.TagH2, view.WithText("Debug Consent")),
	)
	for _, category := range categories {
		box := view.New(view.TagInput, view.WithID(DebugCheckboxID(category)), view.WithName(category), view.WithType("checkbox"), view.WithValue("on"))
		l.DebugForm.Append(box, view.New(view.TagLabel, view.WithText(category), view.WithAttr("for", DebugCheckboxID(category))))
		l.Checkboxes = append(l.Checkboxes, assembler.Checkbox{Category: category, Control: box})
	}
	l.SimulationStatus = view.New(view.TagP, view.WithID(IDSimulationStatus), view.Hidden())
	l.DebugForm.Append(
		view.New(view.TagButton, view.WithType("submit"), view.WithText("Simulate Consent")),
		l.SimulationStatus,
	)

	l.PolicyFile = view.New(view.TagInput, view.WithID(IDPolicyFile), view.WithName("file"), view.WithType("file"), view.WithAttr("accept", ".txt,.pdf,.doc,.docx"))
	l.PolicyForm = view.New(view.TagForm, view.WithID(IDPolicyForm)).Append(
		view.New(view.TagH2, view.WithText("Privacy Policy")),
		l.PolicyFile,
		view.New(view.TagButton, view.WithType("submit"), view.WithText("Upload Policy")),
	)

	l.Root.Append(l.Form, l.Output, l.Error, l.DebugForm, l.PolicyForm)

	if withAnalytics {
		l.AnalyticsData = view.New(view.TagDiv, view.WithID(IDAnalyticsData))
		l.AnalyticsRefresh = view.New(view.TagForm, view.WithID(IDAnalyticsRefresh)).Append(
			view.New(view.TagButton, view.WithType("submit"), view.WithText("Refresh")),
		)
		l.AnalyticsSection = view.New(view.TagSection, view.WithID(IDAnalyticsSection)).Append(
			view.New(view.TagH2, view.WithText("Consent Analytics")),
			l.AnalyticsData,
			l.AnalyticsRefresh,
		)
		l.Root.Append(l.AnalyticsSection)
	}
	return l
}
