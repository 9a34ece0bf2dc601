package main

import "github.com/jhoicas/catalogo-admin/cmd/catalogo-admin/cmd"

func main() {
	cmd.Execute()
}
