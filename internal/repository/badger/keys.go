package badger

// Key layout:
//
//	doc:<docID>          JSON document
//	tok:<term>:<docID>   empty marker, one per distinct term of the document
//
// Terms never contain ':' (letters and digits only), so the doc ID is
// everything after the second separator.
const (
	docPrefix = "doc:"
	tokPrefix = "tok:"
)

func docKey(id string) []byte {
	return []byte(docPrefix + id)
}

func termPrefix(term string) []byte {
	return []byte(tokPrefix + term + ":")
}

func tokKey(term, id string) []byte {
	return []byte(tokPrefix + term + ":" + id)
}
