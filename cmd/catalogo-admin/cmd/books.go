package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-admin/internal/application/dto"
	"github.com/jhoicas/catalogo-admin/internal/domain/entity"
	"github.com/jhoicas/catalogo-admin/pkg/format"
)

func newBooksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Opera sobre los libros del catálogo (requiere sesión)",
	}
	cmd.AddCommand(
		newBooksListCmd(opts),
		newBooksShowCmd(opts),
		newBooksSearchCmd(opts),
		newBooksAddCmd(opts),
		newBooksUpdateCmd(opts),
		newBooksDeleteCmd(opts),
		newBooksCategoriesCmd(opts),
		newBooksExportCmd(opts),
	)
	return cmd
}

// withSession abre la sesión, aplica el guard sobre path y ejecuta fn.
func withSession(cmd *cobra.Command, opts *rootOptions, path string, fn func(a *application) error) error {
	a, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.authorize(cmd.Context(), path); err != nil {
		return err
	}
	return cliError(fn(a))
}

func newBooksListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista los libros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "/", func(a *application) error {
				books, err := a.bookUC.List(cmd.Context())
				if err != nil {
					return err
				}
				return printBooks(cmd.OutOrStdout(), a.prices, books)
			})
		},
	}
}

func newBooksShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Muestra el detalle de un libro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, "/books/"+args[0], func(a *application) error {
				b, err := a.bookUC.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "ID:\t%d\n", b.ID)
				fmt.Fprintf(w, "Título:\t%s\n", b.Titulo)
				fmt.Fprintf(w, "Autor:\t%s\n", b.Autor)
				fmt.Fprintf(w, "Fecha de publicación:\t%s\n", b.PublicationDay())
				fmt.Fprintf(w, "Precio:\t%s\n", a.prices.Price(b.Precio))
				fmt.Fprintf(w, "Stock:\t%d\n", b.Stock)
				fmt.Fprintf(w, "Categoría:\t%s\n", b.Categoria)
				return w.Flush()
			})
		},
	}
}

func newBooksSearchCmd(opts *rootOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "search <texto>",
		Short: "Busca libros por texto con un filtro opcional (author, year, category)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, "/search", func(a *application) error {
				books, err := a.bookUC.Search(cmd.Context(), args[0], filter)
				if err != nil {
					return err
				}
				if len(books) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No se encontraron resultados. Intente otra búsqueda.")
					return nil
				}
				return printBooks(cmd.OutOrStdout(), a.prices, books)
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "filtro: author, year o category")
	return cmd
}

func bookFormFlags(cmd *cobra.Command, form *dto.BookForm) {
	f := cmd.Flags()
	f.StringVar(&form.Titulo, "titulo", "", "título")
	f.StringVar(&form.Autor, "autor", "", "autor")
	f.StringVar(&form.FechaPublicacion, "fecha", "", "fecha de publicación (YYYY-MM-DD)")
	f.StringVar(&form.Precio, "precio", "", "precio")
	f.StringVar(&form.Stock, "stock", "", "stock")
	f.StringVar(&form.Categoria, "categoria", "", "categoría")
}

func newBooksAddCmd(opts *rootOptions) *cobra.Command {
	var form dto.BookForm
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Da de alta un libro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "/add", func(a *application) error {
				b, err := a.bookUC.Create(cmd.Context(), form)
				if err != nil {
					return err
				}
				if b != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Libro creado (id %d)\n", b.ID)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Libro creado")
				return nil
			})
		},
	}
	bookFormFlags(cmd, &form)
	return cmd
}

func newBooksUpdateCmd(opts *rootOptions) *cobra.Command {
	var form dto.BookForm
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualiza los campos indicados de un libro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, "/edit/"+args[0], func(a *application) error {
				if _, err := a.bookUC.Update(cmd.Context(), id, form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Libro %d actualizado\n", id)
				return nil
			})
		},
	}
	bookFormFlags(cmd, &form)
	return cmd
}

func newBooksDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina un libro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, "/books/"+args[0]+"/delete", func(a *application) error {
				if err := a.bookUC.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Libro %d eliminado\n", id)
				return nil
			})
		},
	}
}

func newBooksCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Lista las categorías",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "/add", func(a *application) error {
				cats, err := a.bookUC.Categories(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNOMBRE")
				for _, c := range cats {
					fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Nombre)
				}
				return w.Flush()
			})
		},
	}
}

func newBooksExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta el listado a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "/export.pdf", func(a *application) error {
				data, filename, err := a.exportUC.ExportPDF(cmd.Context())
				if err != nil {
					return err
				}
				if output == "" {
					output = filename
				}
				if dir := filepath.Dir(output); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return err
					}
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("escribir %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "PDF generado: %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archivo destino (default: catalogo-<fecha>.pdf)")
	return cmd
}

func printBooks(out io.Writer, prices *format.PriceFormatter, books []entity.Book) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTÍTULO\tAUTOR\tPUBLICACIÓN\tPRECIO\tSTOCK\tCATEGORÍA")
	for _, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			b.ID, b.Titulo, b.Autor, b.PublicationDay(), prices.Price(b.Precio), b.Stock, b.Categoria)
	}
	return w.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id inválido: %q", s)
	}
	return id, nil
}
