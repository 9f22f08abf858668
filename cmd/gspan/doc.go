// Command gspan parses exported live-event transcripts, with their inline
// editorial annotations, into structured JSON.
//
//	gspan parse transcript.html
//	gspan fetch <doc-id> --parse
//	gspan inspect transcript.docx
//	gspan render transcript.html -o preview.html
//	gspan serve
package main
