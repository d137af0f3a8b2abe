// Package normalisers holds the Normaliser implementations that turn
// uploaded files into document text. paperqa accepts PDFs only, handled
// by the pdf subpackage.
package normalisers
