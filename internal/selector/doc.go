// package selector parses and evaluates boolean playlist selector expressions
//
// An expression combines terms with set operators:
//
//	{Name}       tracks in the playlist called Name
//	[120-130]    tracks whose range attribute (BPM by default) lies in [120, 130]
//	[Rating:4-5] the same against a named attribute
//	Techno       tracks carrying the tag token "techno"
//	"Drum & Bass" a quoted tag token
//
//	a & b   intersection
//	a | b   union
//	a ~ b   difference
//	!a      complement against every performable track
//
// Chains mixing different binary operators must be parenthesized.
package selector
