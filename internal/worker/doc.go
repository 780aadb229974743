// Package worker — основной цикл узла: получение task у координатора
// и прогон его через pipeline.
//
// # Обзор
//
// Worker обрабатывает не более одного task за раз:
//
//   - Запрашивает следующий task у координатора (polling)
//   - Ищет гомологи по всем базам и объединяет выравнивание
//   - Предсказывает и релаксирует структуру
//   - Загружает артефакты и сообщает о завершении
//
// # Создание
//
//	w := worker.New(worker.Config{
//	    Coordinator: client,
//	    Search:      orchestrator,
//	    Predict:     stage,
//	    Uploader:    uploader,
//	    Lifecycle:   manager,
//	    Flusher:     reporter,
//	    WorkDir:     settings.WorkDir,
//	    Logger:      logger,
//	})
//
//	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
//
// # Pipeline
//
//  1. pending 0.0 — task получен, последовательность валидируется
//  2. поиск по базам, прогресс 0.0–0.4 пропорционально чанкам
//  3. объединение выравнивания, stockholm.txt и features.json
//  4. processing 0.4 — предсказание и релаксация
//  5. uploading 0.5, далее 0.6 + 0.3·(i+1)/n после каждого артефакта
//  6. завершение у координатора, completed 1.0
//
// Любая ошибка (включая panic) переводит task в failed с прогрессом 0.0,
// после чего цикл выдерживает паузу 5s и продолжает.
//
// # Остановка
//
// Сентинелы координатора ("кошелёк не зарегистрирован", "нет нужной роли")
// завершают Run без ошибки. Отмена ctx завершает Run с ctx.Err().
package worker
