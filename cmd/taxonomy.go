package cmd

import (
	"fmt"

	"github.com/nrad-K/trend-crawler/internal/infra"
	"github.com/spf13/cobra"
)

var (
	taxonomyIn  string
	taxonomyOut string
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "分類表のExcelブックをJSONに変換します",
	Long: `分類表のExcelブック(normal, night, plans, regionsシート)を読み込み、
runコマンドが起動時に読み込むJSON形式で保存します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := taxonomyOut
		if out == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out = cfg.TaxonomyPath
		}

		taxonomy, err := infra.ConvertTaxonomyWorkbook(taxonomyIn)
		if err != nil {
			return err
		}
		if err := infra.SaveTaxonomy(out, taxonomy); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s に保存しました (通常職種: %d件, ナイト職種: %d件, プラン: %d件)\n",
			out, len(taxonomy.NormalJobCategories), len(taxonomy.NightJobCategories), len(taxonomy.Plans))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.Flags().StringVar(&taxonomyIn, "in", "", "分類表のExcelブック")
	taxonomyCmd.Flags().StringVar(&taxonomyOut, "out", "", "保存先のJSON (省略時は設定ファイルのtaxonomy_path)")
	_ = taxonomyCmd.MarkFlagRequired("in")
}
