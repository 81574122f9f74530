package templates

import "strings"

// Blocklist is the maintained list of technical terms that must never
// appear in a user-visible sentence. Matching is a case-insensitive
// substring test, so short entries also catch words that contain them.
var Blocklist = []string{
	"cross-validation",
	"cross validation",
	"k-fold",
	"hyperparameter",
	"gradient",
	"epoch",
	"overfitting",
	"underfitting",
	"shap",
	"permutation",
	"ablation",
	"precision",
	"recall",
	"f1",
	"auc",
	"roc",
	"r-squared",
	"tabpfn",
	"classifier",
	"regressor",
	"regression",
	"classification",
	"imputation",
	"cardinality",
	"one-hot",
	"label encod",
	"dataframe",
	"feature importance",
	"stratif",
	"sklearn",
	"inference",
	"nan",
}

// Audit returns the blocklisted terms found in s, in Blocklist order.
func Audit(s string) []string {
	lower := strings.ToLower(s)
	var found []string
	for _, term := range Blocklist {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// Clean reports whether s contains no blocklisted term.
func Clean(s string) bool {
	return len(Audit(s)) == 0
}

// AuditSet checks every template source in the set and returns the
// offending terms per template. An empty map means the set is clean.
func AuditSet() map[Name][]string {
	bad := make(map[Name][]string)
	for name, src := range sources {
		if terms := Audit(src); len(terms) > 0 {
			bad[name] = terms
		}
	}
	return bad
}
