package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/internal/scheduler/jobs"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// importRosterCmd loads a roster workbook
var importRosterCmd = &cobra.Command{
	Use:   "import-roster [file.xlsx]",
	Short: "학생 명단 엑셀 가져오기",
	Long: `학생 명단 엑셀(.xlsx)의 첫 시트를 읽어 명단에 반영합니다.

필수 열: 학번, 이름, 학년, 반, 번호 (선택: 성별)
잘못된 행은 건너뛰고 행 번호와 함께 보고합니다.

Example:
  go run ./cmd/baperang import-roster students.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runImportRoster,
}

// importMenuCmd pulls menus from the school meal page
var importMenuCmd = &cobra.Command{
	Use:   "import-menu",
	Short: "급식 식단 가져오기",
	Long: `MENU_IMPORT_URL의 급식 페이지에서 식단을 가져와 게시합니다.
이미 게시된 날짜와 내용이 다르면 덮어쓰지 않고 충돌로 보고합니다.

Example:
  go run ./cmd/baperang import-menu
  go run ./cmd/baperang import-menu --from 2024-03-04 --to 2024-03-08`,
	RunE: runImportMenu,
}

var (
	menuFrom string
	menuTo   string
)

func init() {
	rootCmd.AddCommand(importRosterCmd)
	rootCmd.AddCommand(importMenuCmd)

	importMenuCmd.Flags().StringVar(&menuFrom, "from", "", "시작일 YYYY-MM-DD (기본: 오늘)")
	importMenuCmd.Flags().StringVar(&menuTo, "to", "", "종료일 YYYY-MM-DD (기본: 다음 주 일요일)")
}

func runImportRoster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.roster.ImportXLSX(ctx, f)
	if err != nil {
		return fmt.Errorf("import roster: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Imported %d students", result.Imported))
	if len(result.Failed) > 0 {
		PrintWarning(fmt.Sprintf("%d rows skipped", len(result.Failed)))
		for _, rowErr := range result.Failed {
			fmt.Printf("  %s\n", rowErr.Error())
		}
	}
	return nil
}

func runImportMenu(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.MenuImport.BaseURL == "" {
		return fmt.Errorf("MENU_IMPORT_URL is not set")
	}
	log := logger.New(cfg)

	dr, err := menuRange(time.Now().In(cfg.School.Location()))
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.importer.Import(ctx, dr)
	if err != nil {
		return fmt.Errorf("import menu: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Published %d menus for %s", result.Published, dr.String()))
	if len(result.Conflicts) > 0 {
		PrintWarning(fmt.Sprintf("Already published with different content: %v", result.Conflicts))
	}
	return nil
}

// menuRange resolves --from/--to, defaulting to the upcoming range the job uses
func menuRange(now time.Time) (contracts.DateRange, error) {
	dr := jobs.UpcomingRange(now)
	if menuFrom != "" {
		from, err := contracts.ParseDate(menuFrom)
		if err != nil {
			return contracts.DateRange{}, err
		}
		dr.From = from
	}
	if menuTo != "" {
		to, err := contracts.ParseDate(menuTo)
		if err != nil {
			return contracts.DateRange{}, err
		}
		dr.To = to
	}
	return contracts.NewDateRange(dr.From, dr.To)
}
