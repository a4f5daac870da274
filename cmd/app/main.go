package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"farm-manager/internal/ai"
	"farm-manager/internal/app"
	"farm-manager/internal/core"
	"farm-manager/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	stockService := core.NewStockService(pool)
	plotService := core.NewPlotService(pool)
	taskService := core.NewTaskService(pool, stockService)
	warehouseService := core.NewWarehouseService(pool)
	catalogService := core.NewCatalogService(pool)
	workerService := core.NewWorkerService(pool)
	equipmentService := core.NewEquipmentService(pool)
	documentService := core.NewDocumentService(pool)
	reportingService := core.NewReportingService(pool)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	}
	agent := ai.NewAgent(apiKey)

	svc := app.NewAppService(pool, plotService, taskService, stockService,
		warehouseService, catalogService, workerService, equipmentService,
		documentService, reportingService, agent)

	if len(os.Args) > 1 {
		runCommand(ctx, svc, os.Args[1], os.Args[2:])
		return
	}
	runREPL(ctx, svc)
}

func runCommand(ctx context.Context, svc app.ApplicationService, cmd string, args []string) {
	switch cmd {
	case "plots":
		result, err := svc.ListPlots(ctx)
		if err != nil {
			log.Fatalf("Failed to list plots: %v", err)
		}
		printPlots(result.Plots)

	case "plot":
		if len(args) < 1 {
			log.Fatal("Usage: app plot <id>")
		}
		id := mustAtoi(args[0])
		card, err := svc.GetPlotCard(ctx, id)
		if err != nil {
			log.Fatalf("Failed to fetch plot card: %v", err)
		}
		printPlotCard(card)

	case "tasks":
		result, err := svc.ListTasks(ctx, nil, nil)
		if err != nil {
			log.Fatalf("Failed to list tasks: %v", err)
		}
		printTasks(result.Tasks)

	case "stocks":
		overview, err := svc.GetWarehouseOverview(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch warehouse overview: %v", err)
		}
		printWarehouses(overview)

	case "report":
		dateFrom, dateTo := "", ""
		if len(args) > 0 {
			dateFrom = args[0]
		}
		if len(args) > 1 {
			dateTo = args[1]
		}
		report, err := svc.GetSeasonReport(ctx, dateFrom, dateTo)
		if err != nil {
			log.Fatalf("Failed to build season report: %v", err)
		}
		printSeasonReport(report)

	case "workers":
		result, err := svc.ListWorkers(ctx)
		if err != nil {
			log.Fatalf("Failed to list workers: %v", err)
		}
		printWorkers(result.Workers)

	case "equipment":
		result, err := svc.ListEquipment(ctx)
		if err != nil {
			log.Fatalf("Failed to list equipment: %v", err)
		}
		printEquipment(result.Equipment)

	case "crops":
		result, err := svc.ListCrops(ctx)
		if err != nil {
			log.Fatalf("Failed to list crops: %v", err)
		}
		printCrops(result.Crops)

	case "fertilizers":
		result, err := svc.ListFertilizers(ctx)
		if err != nil {
			log.Fatalf("Failed to list fertilizers: %v", err)
		}
		printFertilizers(result.Fertilizers)

	case "docs":
		if len(args) < 2 {
			log.Fatal("Usage: app docs <entity-kind> <entity-id>")
		}
		result, err := svc.ListDocuments(ctx, args[0], mustAtoi(args[1]))
		if err != nil {
			log.Fatalf("Failed to list documents: %v", err)
		}
		printDocuments(result.Documents)

	case "propose":
		if len(args) < 1 {
			log.Fatal("Usage: app propose \"<work description>\"")
		}
		proposal, err := svc.ProposeTask(ctx, args[0])
		if err != nil {
			log.Fatalf("Agent error: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(proposal)

	default:
		log.Fatalf("Unknown command: %s", cmd)
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("Expected a numeric id, got %q", s)
	}
	return n
}

func runREPL(ctx context.Context, svc app.ApplicationService) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Farm Manager REPL")
	fmt.Println("Type 'help' for commands; free text is sent to the planner agent.")
	fmt.Println("-----------------------")

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		tokens := strings.Fields(input)
		switch strings.ToLower(tokens[0]) {
		case "exit", "quit":
			return
		case "help":
			fmt.Println("Commands: plots, plot <id>, tasks, stocks, report [from] [to],")
			fmt.Println("          workers, equipment, crops, fertilizers, docs <kind> <id>,")
			fmt.Println("          start <id> <date>, complete <id> <date> [warehouse object qty],")
			fmt.Println("          cancel <id>, exit")
			fmt.Println("Anything else is interpreted as a work description for the planner.")
			continue
		case "plots", "tasks", "stocks", "workers", "equipment", "crops", "fertilizers":
			runCommand(ctx, svc, tokens[0], nil)
			continue
		case "plot", "report", "docs":
			runCommand(ctx, svc, tokens[0], tokens[1:])
			continue
		case "start":
			if len(tokens) < 3 {
				fmt.Println("Usage: start <task-id> <YYYY-MM-DD>")
				continue
			}
			task, err := svc.StartTask(ctx, mustAtoi(tokens[1]), app.StartTaskRequest{StartDate: tokens[2]})
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Task %d started.\n", task.ID)
			continue
		case "complete":
			if len(tokens) < 3 {
				fmt.Println("Usage: complete <task-id> <YYYY-MM-DD> [warehouse-id object-id quantity]")
				continue
			}
			req := app.CompleteTaskRequest{EndDate: tokens[2]}
			if len(tokens) >= 6 {
				warehouseID := mustAtoi(tokens[3])
				objectID := mustAtoi(tokens[4])
				qty, err := decimal.NewFromString(tokens[5])
				if err != nil {
					fmt.Printf("Invalid quantity %q\n", tokens[5])
					continue
				}
				req.WarehouseID = &warehouseID
				req.ObjectID = &objectID
				req.Quantity = qty
			}
			task, err := svc.CompleteTask(ctx, mustAtoi(tokens[1]), req)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Task %d completed.\n", task.ID)
			continue
		case "cancel":
			if len(tokens) < 2 {
				fmt.Println("Usage: cancel <task-id>")
				continue
			}
			task, err := svc.CancelTask(ctx, mustAtoi(tokens[1]))
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Task %d cancelled.\n", task.ID)
			continue
		}

		fmt.Println("[AI] Interpreting work description...")
		proposal, err := svc.ProposeTask(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printProposal(proposal)

		if proposal.Confidence < 0.6 {
			fmt.Println("\nWARNING: Low confidence proposal.")
		}

		fmt.Print("\nPlan this task? (y/n): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToLower(choice))
		if choice != "y" && choice != "yes" {
			fmt.Println("Task not planned.")
			continue
		}

		plotID, err := resolvePlotID(ctx, svc, proposal.PlotName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		task, err := svc.PlanTask(ctx, app.PlanTaskRequest{
			PlotID:      plotID,
			Category:    core.TaskCategory(proposal.Category),
			TaskType:    proposal.TaskType,
			PlanDate:    proposal.PlanDate,
			Description: proposal.Description,
		})
		if err != nil {
			fmt.Printf("Planning FAILED: %v\n", err)
			continue
		}
		fmt.Printf("Task %d PLANNED.\n", task.ID)
	}
}

func resolvePlotID(ctx context.Context, svc app.ApplicationService, name string) (int, error) {
	result, err := svc.ListPlots(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range result.Plots {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("no plot named %q", name)
}

func printPlots(plots []core.Plot) {
	fmt.Println("\n--- PLOTS ---")
	fmt.Printf("%-5s %-25s %10s %-8s %-12s %-20s\n", "ID", "NAME", "AREA HA", "TENURE", "STATUS", "CROP")
	fmt.Println(strings.Repeat("-", 85))
	for _, p := range plots {
		fmt.Printf("%-5d %-25s %10s %-8s %-12s %-20s\n",
			p.ID, p.Name, p.AreaHa.StringFixed(2), p.Ownership, p.Status, p.Crop)
	}
}

func printPlotCard(card *app.PlotCardResult) {
	p := card.Plot
	fmt.Printf("\nPLOT:    %s (id %d)\n", p.Name, p.ID)
	fmt.Printf("AREA:    %s ha, %s\n", p.AreaHa.StringFixed(2), p.Ownership)
	fmt.Printf("STATUS:  %s\n", p.Status)
	if p.Crop != "" {
		fmt.Printf("CROP:    %s\n", p.Crop)
	}
	printTasks(card.Tasks)
	if len(card.Harvests) > 0 {
		fmt.Println("\n--- HARVESTS ---")
		for _, h := range card.Harvests {
			fmt.Printf("  %s  %-20s %10s\n", h.Date, h.Culture, h.Amount.StringFixed(3))
		}
	}
}

func printTasks(tasks []core.FieldTask) {
	fmt.Println("\n--- TASKS ---")
	fmt.Printf("%-5s %-5s %-18s %-22s %-12s %-12s\n", "ID", "PLOT", "CATEGORY", "TYPE", "STATUS", "PLAN DATE")
	fmt.Println(strings.Repeat("-", 80))
	for _, t := range tasks {
		fmt.Printf("%-5d %-5d %-18s %-22s %-12s %-12s\n",
			t.ID, t.PlotID, t.Category, t.TaskType, t.Status, t.PlanDate)
	}
}

func printWarehouses(overview *app.WarehouseOverviewResult) {
	fmt.Println("\n--- WAREHOUSES ---")
	for _, w := range overview.Warehouses {
		u := w.Utilization
		fmt.Printf("\n%s (id %d, %s): %s / %s %s used\n",
			u.WarehouseName, u.WarehouseID, u.Type,
			u.Used.StringFixed(3), u.Capacity.StringFixed(3), u.Unit)
		for _, l := range w.Levels {
			fmt.Printf("  %-12s %-25s %12s %s\n", l.ObjectKind, l.ObjectName, l.Net.StringFixed(3), l.Unit)
		}
	}
}

func printSeasonReport(report *app.SeasonReportResult) {
	fmt.Println("\n--- SEASON REPORT ---")
	if len(report.Harvests) > 0 {
		fmt.Println("Harvest totals:")
		for _, h := range report.Harvests {
			fmt.Printf("  %-25s %-20s %12s (%d events)\n", h.PlotName, h.Culture, h.Total.StringFixed(3), h.Events)
		}
	}
	if len(report.Activity) > 0 {
		fmt.Println("Task activity:")
		fmt.Printf("  %-20s %8s %8s %10s %10s\n", "CATEGORY", "PLANNED", "RUNNING", "COMPLETED", "CANCELLED")
		for _, a := range report.Activity {
			fmt.Printf("  %-20s %8d %8d %10d %10d\n", a.Category, a.Planned, a.Running, a.Completed, a.Cancelled)
		}
	}
}

func printWorkers(workers []core.Worker) {
	fmt.Println("\n--- WORKERS ---")
	fmt.Printf("%-5s %-25s %-20s %-10s\n", "ID", "NAME", "POSITION", "STATUS")
	fmt.Println(strings.Repeat("-", 65))
	for _, w := range workers {
		fmt.Printf("%-5d %-25s %-20s %-10s\n", w.ID, w.Name, w.Position, w.Status)
	}
}

func printEquipment(equipment []core.Equipment) {
	fmt.Println("\n--- EQUIPMENT ---")
	fmt.Printf("%-5s %-12s %-12s %-25s %-12s\n", "ID", "CATEGORY", "TYPE", "NAME", "STATUS")
	fmt.Println(strings.Repeat("-", 70))
	for _, e := range equipment {
		fmt.Printf("%-5d %-12s %-12s %-25s %-12s\n", e.ID, e.Category, e.Type, e.Name, e.Status)
	}
}

func printCrops(crops []core.Crop) {
	fmt.Println("\n--- CROPS ---")
	fmt.Printf("%-5s %-25s %-15s %-15s\n", "ID", "NAME", "CATEGORY", "VARIETY")
	fmt.Println(strings.Repeat("-", 65))
	for _, c := range crops {
		fmt.Printf("%-5d %-25s %-15s %-15s\n", c.ID, c.Name, c.Category, c.Variety)
	}
}

func printFertilizers(fertilizers []core.Fertilizer) {
	fmt.Println("\n--- FERTILIZERS ---")
	fmt.Printf("%-5s %-25s %-15s %-12s\n", "ID", "NAME", "TYPE", "FORM")
	fmt.Println(strings.Repeat("-", 60))
	for _, f := range fertilizers {
		fmt.Printf("%-5d %-25s %-15s %-12s\n", f.ID, f.Name, f.FertilizerType, f.Form)
	}
}

func printDocuments(docs []core.Document) {
	fmt.Println("\n--- DOCUMENTS ---")
	fmt.Printf("%-5s %-25s %-20s %-12s\n", "ID", "FILE", "TYPE", "UPLOADED")
	fmt.Println(strings.Repeat("-", 65))
	for _, d := range docs {
		fmt.Printf("%-5d %-25s %-20s %-12s\n", d.ID, d.FileName, d.DocumentType, d.UploadDate.Format("2006-01-02"))
	}
}

func printProposal(p *ai.TaskProposal) {
	fmt.Printf("\nPLOT:       %s\n", p.PlotName)
	fmt.Printf("CATEGORY:   %s\n", p.Category)
	fmt.Printf("TYPE:       %s\n", p.TaskType)
	fmt.Printf("PLAN DATE:  %s\n", p.PlanDate)
	fmt.Printf("REASONING:  %s\n", p.Reasoning)
	fmt.Printf("CONFIDENCE: %.2f\n", p.Confidence)
}
