package domain

import "time"

// StatResult - состояние, которое публикует каждый наблюдатель статистики.
// Data == nil, пока не завершилась ни одна успешная загрузка.
type StatResult[T any] struct {
	Data       *T        `json:"data"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
	LastUpdate time.Time `json:"lastUpdate,omitempty"`
	IsPolling  bool      `json:"isPolling"`
}

// DateGroupID - ключ группировки бэкенда; Day и Week равны нулю для более крупных групп
type DateGroupID struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Week  int `json:"week,omitempty"`
	Day   int `json:"day,omitempty"`
}

// DateGroupRecord - запись, сгруппированная бэкендом по дню, неделе или месяцу
type DateGroupRecord struct {
	ID        DateGroupID `json:"_id"`
	Commandes int         `json:"commandes"`
	Recettes  float64     `json:"recettes"`
}

// SeriesPoint - точка графика с одним значением
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DualSeriesPoint - точка графика с количеством заказов и выручкой
type DualSeriesPoint struct {
	Date      string  `json:"date"`
	Commandes int     `json:"commandes"`
	Recettes  float64 `json:"recettes"`
}

// Delta - изменение между двумя периодами в процентах
type Delta struct {
	Value      float64 `json:"value"`
	IsPositive bool    `json:"isPositive"`
}

// PeriodTotals - итоги за период
type PeriodTotals struct {
	Commandes int     `json:"commandes"`
	Recettes  float64 `json:"recettes"`
}

// OverviewStats - сводная статистика (GET /stats/overview)
type OverviewStats struct {
	Commandes        int     `json:"commandes"`
	Recettes         float64 `json:"recettes"`
	PanierMoyen      float64 `json:"panierMoyen"`
	CommandesEnCours int     `json:"commandesEnCours"`
	ClientsServis    int     `json:"clientsServis"`
	TablesOccupees   int     `json:"tablesOccupees"`
}

// Totals возвращает итоги за период из сводной статистики
func (o OverviewStats) Totals() PeriodTotals {
	return PeriodTotals{Commandes: o.Commandes, Recettes: o.Recettes}
}

// SalesStats - продажи за период (GET /stats/sales)
type SalesStats struct {
	Total     float64           `json:"total"`
	Commandes int               `json:"commandes"`
	Ventes    []DateGroupRecord `json:"ventes"`
}

// TopSellingItem - позиция меню в рейтинге продаж (GET /stats/top-selling)
type TopSellingItem struct {
	ID              string  `json:"_id"`
	Nom             string  `json:"nom"`
	Categorie       string  `json:"categorie,omitempty"`
	Quantite        int     `json:"quantite"`
	ChiffreAffaires float64 `json:"chiffreAffaires"`
}

// ServerPerformance - показатели одного сотрудника зала
type ServerPerformance struct {
	ID        string  `json:"_id"`
	Nom       string  `json:"nom"`
	Commandes int     `json:"commandes"`
	Recettes  float64 `json:"recettes"`
}

// PerformanceStats - полный отчёт о производительности (GET /stats/performance-complete)
type PerformanceStats struct {
	Commandes             int                 `json:"commandes"`
	Recettes              float64             `json:"recettes"`
	TempsMoyenPreparation float64             `json:"tempsMoyenPreparation"`
	TauxAnnulation        float64             `json:"tauxAnnulation"`
	ParServeur            []ServerPerformance `json:"parServeur"`
}

// PaymentMethodStat - итог по способу оплаты (GET /stats/payment-methods)
type PaymentMethodStat struct {
	Methode string  `json:"_id"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

// CategoryDuration - среднее время приготовления по категории
type CategoryDuration struct {
	Categorie string  `json:"_id"`
	Moyenne   float64 `json:"moyenne"`
}

// PreparationTimeStats - время приготовления в минутах (GET /stats/preparation-time)
type PreparationTimeStats struct {
	Moyenne      float64            `json:"moyenne"`
	Min          float64            `json:"min"`
	Max          float64            `json:"max"`
	ParCategorie []CategoryDuration `json:"parCategorie"`
}

// ComparisonStats - сравнение с предыдущим периодом (GET /stats/comparison)
type ComparisonStats struct {
	Actuelle   PeriodTotals `json:"actuelle"`
	Precedente PeriodTotals `json:"precedente"`
}

// StockStats - сводка по складу (GET /stats/stock)
type StockStats struct {
	TotalArticles    int     `json:"totalArticles"`
	ArticlesEnAlerte int     `json:"articlesEnAlerte"`
	ValeurTotale     float64 `json:"valeurTotale"`
}

// StockItem - складская позиция (GET /stock)
type StockItem struct {
	ID          string  `json:"_id"`
	Nom         string  `json:"nom"`
	Categorie   string  `json:"categorie,omitempty"`
	Quantite    float64 `json:"quantite"`
	Unite       string  `json:"unite"`
	SeuilAlerte float64 `json:"seuilAlerte"`
}

// StockAlert - позиция ниже порога (GET /stock/alerts)
type StockAlert struct {
	StockItem
	Niveau string `json:"niveau"`
}

// StockMovement - движение по складу (GET /stock/movements)
type StockMovement struct {
	ID        string  `json:"_id"`
	ArticleID string  `json:"article"`
	Type      string  `json:"type"`
	Quantite  float64 `json:"quantite"`
	Motif     string  `json:"motif,omitempty"`
	Date      string  `json:"date"`
}

// MovementFilter - фильтр движений по складу
type MovementFilter struct {
	ArticleID string
	Type      string
	DateDebut string
	DateFin   string
	Limit     int
}

// ExpenseCategory - расходы по категории
type ExpenseCategory struct {
	Categorie string  `json:"_id"`
	Total     float64 `json:"total"`
}

// ExpenseStats - расходы за период (GET /stats/expenses)
type ExpenseStats struct {
	Total        float64           `json:"total"`
	ParCategorie []ExpenseCategory `json:"parCategorie"`
}

// EmployeeStats - показатели сотрудника
type EmployeeStats struct {
	ID        string  `json:"_id"`
	Nom       string  `json:"nom"`
	Role      string  `json:"role"`
	Commandes int     `json:"commandes"`
	Recettes  float64 `json:"recettes"`
}

// PersonnelStats - статистика по персоналу (GET /stats/personnel)
type PersonnelStats struct {
	TotalEmployes int             `json:"totalEmployes"`
	Presents      int             `json:"presents"`
	ParEmploye    []EmployeeStats `json:"parEmploye"`
}

// Notification - уведомление бэк-офиса
type Notification struct {
	ID        string `json:"_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Lu        bool   `json:"lu"`
	CreatedAt string `json:"createdAt"`
}

// SchedulerTask - задача планировщика бэкенда
type SchedulerTask struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	LastRun  string `json:"lastRun,omitempty"`
	NextRun  string `json:"nextRun,omitempty"`
}

// SchedulerStatus - состояние планировщика (GET /scheduler/status)
type SchedulerStatus struct {
	Running bool            `json:"running"`
	Tasks   []SchedulerTask `json:"tasks"`
}

// ExportFile - бинарный результат экспорта
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
