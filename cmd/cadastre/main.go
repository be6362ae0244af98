// Command cadastre loads cadastral XML exports into PostgreSQL, serves the
// loaded records and cross-references scanned PDF files.
package main

func main() {
	Execute()
}
