package resource

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("resource.repository: resource not found")

	// ErrCapacityExhausted возвращается, когда запрошенное количество не помещается в свободную вместимость
	ErrCapacityExhausted = errors.New("resource.repository: capacity exhausted")

	// ErrResourceRetired возвращается при попытке занять вместимость выведенного из каталога ресурса
	ErrResourceRetired = errors.New("resource.repository: resource retired")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("resource.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("resource.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("resource.repository: failed to scan row")
)
