package literal

// SpecialCharacterValues are partition and literal values known to trip up
// escaping: path separators, quote characters, escape characters, percent
// signs, surrounding whitespace, non-ASCII letters and combining emoji.
var SpecialCharacterValues = []string{
	"with-hyphen",
	"with.dot",
	"with:colon",
	"with/slash",
	`with\\backslashes`,
	`with\backslash`,
	"with=equal",
	"with?question",
	"with!exclamation",
	"with%percent",
	"with%%percents",
	"with$dollar",
	"with#hash",
	"with*star",
	"with=equals",
	`with"quote`,
	"with'apostrophe",
	"with space",
	" with space prefix",
	"with space suffix ",
	"with€euro",
	"with non-ascii ąęłóść Θ Φ Δ",
	"with👨‍🏭combining character",
	" 👨‍🏭",
	"👨‍🏭 ",
}
